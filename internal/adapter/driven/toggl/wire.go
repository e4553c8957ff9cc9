package toggl

import (
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

type meJSON struct {
	ID                 int64  `json:"id"`
	Email              string `json:"email"`
	Fullname           string `json:"fullname"`
	DefaultWorkspaceID int64  `json:"default_workspace_id"`
}

type workspaceJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type entryJSON struct {
	ID          int64      `json:"id"`
	WorkspaceID int64      `json:"workspace_id"`
	ProjectID   *int64     `json:"project_id"`
	UserID      int64      `json:"user_id"`
	Description *string    `json:"description"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop"`
	Duration    int64      `json:"duration"`
	Tags        []string   `json:"tags"`
	Billable    bool       `json:"billable"`
	At          time.Time  `json:"at"`
}

type projectJSON struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	ClientID    *int64    `json:"client_id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Active      bool      `json:"active"`
	Billable    *bool     `json:"billable"`
	At          time.Time `json:"at"`
}

type newEntryJSON struct {
	CreatedWith string    `json:"created_with"`
	Description string    `json:"description,omitempty"`
	WorkspaceID int64     `json:"workspace_id"`
	Start       time.Time `json:"start"`
	Duration    int64     `json:"duration"`
	Tags        []string  `json:"tags,omitempty"`
}

type projectUpdateJSON struct {
	ProjectID *int64 `json:"project_id"`
}

type descriptionUpdateJSON struct {
	Description string `json:"description"`
}

// toEntry maps the wire representation. A negative duration marks a running
// entry and becomes a nil Duration.
func (e entryJSON) toEntry() model.Entry {
	out := model.Entry{
		ID:          e.ID,
		AccountID:   e.UserID,
		WorkspaceID: e.WorkspaceID,
		ProjectID:   e.ProjectID,
		Start:       e.Start.UTC(),
		Tags:        e.Tags,
		Billable:    e.Billable,
		UpdatedAt:   e.At.UTC(),
	}
	if e.Description != nil {
		out.Description = *e.Description
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if e.Duration >= 0 && e.Stop != nil {
		d := e.Duration
		stop := e.Stop.UTC()
		out.Duration = &d
		out.Stop = &stop
	} else if e.Duration >= 0 {
		d := e.Duration
		out.Duration = &d
	}
	return out
}

func (p projectJSON) toProject() model.Project {
	out := model.Project{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		ClientID:    p.ClientID,
		Name:        p.Name,
		Color:       p.Color,
		Active:      p.Active,
		UpdatedAt:   p.At.UTC(),
	}
	if p.Billable != nil {
		out.Billable = *p.Billable
	}
	return out
}

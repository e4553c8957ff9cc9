package toggl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// Me returns the account that owns the token.
func (c *Client) Me(ctx context.Context) (model.Account, error) {
	var me meJSON
	if err := c.do(ctx, "get me", http.MethodGet, "/me", nil, &me); err != nil {
		return model.Account{}, err
	}
	return model.Account{
		ID:                 me.ID,
		Email:              me.Email,
		FullName:           me.Fullname,
		DefaultWorkspaceID: me.DefaultWorkspaceID,
		LastSeenAt:         time.Now().UTC(),
	}, nil
}

// FetchEntries returns the entries started in [start, end).
func (c *Client) FetchEntries(ctx context.Context, start, end time.Time) ([]model.Entry, error) {
	q := url.Values{}
	q.Set("start_date", start.UTC().Format(time.RFC3339))
	q.Set("end_date", end.UTC().Format(time.RFC3339))

	var raw []entryJSON
	if err := c.do(ctx, "fetch entries", http.MethodGet, "/me/time_entries?"+q.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	entries := make([]model.Entry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, e.toEntry())
	}
	return entries, nil
}

// UpdateEntryProject assigns projectID to the entry; nil clears the project.
func (c *Client) UpdateEntryProject(ctx context.Context, workspaceID, entryID int64, projectID *int64) error {
	path := fmt.Sprintf("/workspaces/%d/time_entries/%d", workspaceID, entryID)
	return c.do(ctx, "update entry project", http.MethodPut, path, projectUpdateJSON{ProjectID: projectID}, nil)
}

// UpdateEntryDescription replaces the entry description.
func (c *Client) UpdateEntryDescription(ctx context.Context, workspaceID, entryID int64, text string) error {
	path := fmt.Sprintf("/workspaces/%d/time_entries/%d", workspaceID, entryID)
	return c.do(ctx, "update entry description", http.MethodPut, path, descriptionUpdateJSON{Description: text}, nil)
}

// StartEntry creates a running entry starting now.
func (c *Client) StartEntry(ctx context.Context, workspaceID int64, description string) (model.Entry, error) {
	body := newEntryJSON{
		CreatedWith: createdWith,
		Description: description,
		WorkspaceID: workspaceID,
		Start:       time.Now().UTC().Truncate(time.Second),
		Duration:    -1,
	}

	var raw entryJSON
	path := fmt.Sprintf("/workspaces/%d/time_entries", workspaceID)
	if err := c.do(ctx, "start entry", http.MethodPost, path, body, &raw); err != nil {
		return model.Entry{}, err
	}
	return raw.toEntry(), nil
}

// StopEntry stops a running entry.
func (c *Client) StopEntry(ctx context.Context, workspaceID, entryID int64) (model.Entry, error) {
	var raw entryJSON
	path := fmt.Sprintf("/workspaces/%d/time_entries/%d/stop", workspaceID, entryID)
	if err := c.do(ctx, "stop entry", http.MethodPatch, path, nil, &raw); err != nil {
		return model.Entry{}, err
	}
	return raw.toEntry(), nil
}

// CurrentEntry returns the running entry, or nil when the API reports none.
func (c *Client) CurrentEntry(ctx context.Context) (*model.Entry, error) {
	var raw *entryJSON
	if err := c.do(ctx, "current entry", http.MethodGet, "/me/time_entries/current", nil, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	e := raw.toEntry()
	return &e, nil
}

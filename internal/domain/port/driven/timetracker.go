package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// TimeTracker defines the driven port for the remote time-tracking service.
// Implementations authenticate with their own token and report failures using
// the error taxonomy (ErrAuth, ErrRateLimited, ErrTransient, ErrNotFound).
// They do not retry.
type TimeTracker interface {
	// Me returns the account that owns the token.
	Me(ctx context.Context) (model.Account, error)

	// FetchEntries returns entries whose start falls in [start, end).
	FetchEntries(ctx context.Context, start, end time.Time) ([]model.Entry, error)

	// FetchProjects returns every project visible to the account.
	FetchProjects(ctx context.Context) ([]model.Project, error)

	// UpdateEntryProject assigns projectID (nil clears it) to the entry.
	UpdateEntryProject(ctx context.Context, workspaceID, entryID int64, projectID *int64) error

	// UpdateEntryDescription replaces the entry description.
	UpdateEntryDescription(ctx context.Context, workspaceID, entryID int64, text string) error

	// StartEntry starts a new running entry in the workspace.
	StartEntry(ctx context.Context, workspaceID int64, description string) (model.Entry, error)

	// StopEntry stops a running entry and returns its final state.
	StopEntry(ctx context.Context, workspaceID, entryID int64) (model.Entry, error)

	// CurrentEntry returns the running entry, or nil when nothing is running.
	CurrentEntry(ctx context.Context) (*model.Entry, error)
}

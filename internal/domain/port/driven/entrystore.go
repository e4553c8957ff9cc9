package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// EntryStore defines the driven port for cached time entries. Every method is
// scoped by account; rows of other accounts are never visible.
type EntryStore interface {
	// UpsertEntries replaces any row sharing (id, account). All-or-nothing.
	UpsertEntries(ctx context.Context, accountID int64, entries []model.Entry) error

	// QueryEntries returns entries overlapping r and matching f, in no particular order.
	QueryEntries(ctx context.Context, accountID int64, r model.DateRange, f model.EntryFilter) ([]model.Entry, error)

	// GetEntry returns one cached entry or ErrNotFound.
	GetEntry(ctx context.Context, accountID, entryID int64) (*model.Entry, error)

	// RunningEntry returns the running entry, or nil when none is cached.
	RunningEntry(ctx context.Context, accountID int64) (*model.Entry, error)

	// CloseRunning stops every cached running entry except keepID at the
	// given time (never before the entry's start). keepID 0 keeps none.
	CloseRunning(ctx context.Context, accountID, keepID int64, at time.Time) error

	// UpdateEntryProject updates exactly one row or returns ErrNotFound.
	UpdateEntryProject(ctx context.Context, accountID, entryID int64, projectID *int64) error

	// UpdateEntryDescription updates exactly one row or returns ErrNotFound.
	UpdateEntryDescription(ctx context.Context, accountID, entryID int64, text string) error
}

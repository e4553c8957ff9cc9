package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// SyncStore defines the driven port for sync bookkeeping and atomic pull commits.
type SyncStore interface {
	// RecordSync stores the last successful pull time of kind for the account.
	RecordSync(ctx context.Context, accountID int64, kind model.ResourceKind, at time.Time) error

	// LastSync returns the last pull time. ok is false when the kind was never synced.
	LastSync(ctx context.Context, accountID int64, kind model.ResourceKind) (at time.Time, ok bool, err error)

	// CommitEntries upserts entries and records the entries sync in one transaction.
	CommitEntries(ctx context.Context, accountID int64, entries []model.Entry, at time.Time) error

	// CommitProjects upserts projects and records the projects sync in one transaction.
	CommitProjects(ctx context.Context, accountID int64, projects []model.Project, at time.Time) error

	// Wipe deletes cached rows according to scope.
	Wipe(ctx context.Context, scope model.WipeScope) error
}

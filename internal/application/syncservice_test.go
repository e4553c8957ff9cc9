package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/timeguru/internal/application"
	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

func authErr(op string) error {
	return &driven.RemoteError{Kind: driven.ErrAuth, Op: op, StatusCode: 401}
}

func transientErr(op string) error {
	return &driven.RemoteError{Kind: driven.ErrTransient, Op: op, StatusCode: 503}
}

func TestSyncService_ResolveAccountStoresCurrent(t *testing.T) {
	f := newFixture()

	acct, switched, err := f.svc.ResolveAccount(context.Background())
	require.NoError(t, err)
	assert.False(t, switched)
	assert.Equal(t, int64(1), acct.ID)
	require.NotNil(t, f.accounts.current)
	assert.Equal(t, int64(1), f.accounts.current.ID)

	got, ok := f.session.Account()
	require.True(t, ok)
	assert.Equal(t, acct.ID, got.ID)
}

func TestSyncService_ResolveAccountDetectsSwitch(t *testing.T) {
	f := newFixture()
	f.accounts.current = &model.Account{ID: 99}

	acct, switched, err := f.svc.ResolveAccount(context.Background())
	require.NoError(t, err)
	assert.True(t, switched)
	assert.Equal(t, int64(1), acct.ID)
}

func TestSyncService_NoClient(t *testing.T) {
	f := newFixture()
	f.session.Replace(nil)

	_, err := f.svc.BulkPull(context.Background(), week())
	require.ErrorIs(t, err, driven.ErrNoClient)

	err = f.svc.AssignProject(context.Background(), 1, ptr(5))
	require.ErrorIs(t, err, driven.ErrNoClient)
	assert.False(t, f.svc.Busy(), "gate must be released after a failed precondition")
}

func TestSyncService_BulkPullCommitsBothKinds(t *testing.T) {
	f := newFixture()
	f.tracker.fetchEntries = func(_ context.Context, _, _ time.Time) ([]model.Entry, error) {
		return []model.Entry{entry(1, "Standup", ptr(5)), entry(2, "Review", nil)}, nil
	}
	f.tracker.fetchProjects = func(_ context.Context) ([]model.Project, error) {
		return []model.Project{{ID: 5, Name: "Internal"}}, nil
	}

	res, err := f.svc.BulkPull(context.Background(), week())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Entries)
	assert.Equal(t, 1, res.Projects)
	assert.NotEmpty(t, res.RunID)

	_, ok, err := f.svc.LastSync(context.Background(), model.ResourceEntries)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = f.svc.LastSync(context.Background(), model.ResourceProjects)
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := f.svc.LoadEntries(context.Background(), week(), model.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID, "newest first")
}

func TestSyncService_BulkPullFetchFailureLeavesStoreUntouched(t *testing.T) {
	f := newFixture()
	f.tracker.fetchEntries = func(_ context.Context, _, _ time.Time) ([]model.Entry, error) {
		return []model.Entry{entry(1, "Standup", nil)}, nil
	}
	f.tracker.fetchProjects = func(_ context.Context) ([]model.Project, error) {
		return nil, authErr("fetch projects")
	}

	_, err := f.svc.BulkPull(context.Background(), week())
	require.ErrorIs(t, err, driven.ErrAuth)

	assert.Zero(t, f.entries.upserts)
	assert.Empty(t, f.syncs.last)
}

func TestSyncService_BulkPullPersistenceFailureKeepsLastSync(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// First pull succeeds.
	f.tracker.fetchEntries = func(_ context.Context, _, _ time.Time) ([]model.Entry, error) {
		return []model.Entry{entry(1, "Standup", nil)}, nil
	}
	_, err := f.svc.BulkPull(ctx, week())
	require.NoError(t, err)
	before, ok, err := f.svc.LastSync(ctx, model.ResourceEntries)
	require.NoError(t, err)
	require.True(t, ok)

	// Second pull fetches fine but cannot persist.
	f.tracker.fetchEntries = func(_ context.Context, _, _ time.Time) ([]model.Entry, error) {
		return []model.Entry{entry(1, "Renamed", nil), entry(2, "New", nil)}, nil
	}
	f.syncs.commitEntriesErr = fmt.Errorf("commit entries: %w", driven.ErrLocalStore)

	_, err = f.svc.BulkPull(ctx, week())
	require.ErrorIs(t, err, driven.ErrLocalStore)

	after, ok, err := f.svc.LastSync(ctx, model.ResourceEntries)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before, after)

	cached := f.entries.get(1, 1)
	assert.Equal(t, "Standup", cached.Description)
	_, err = f.entries.GetEntry(ctx, 1, 2)
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestSyncService_BulkPullRetriesTransient(t *testing.T) {
	f := newFixture()
	var calls atomic.Int32
	f.tracker.fetchEntries = func(_ context.Context, _, _ time.Time) ([]model.Entry, error) {
		if calls.Add(1) < 3 {
			return nil, transientErr("fetch entries")
		}
		return []model.Entry{entry(1, "Standup", nil)}, nil
	}

	res, err := f.svc.BulkPull(context.Background(), week())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Entries)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSyncService_AssignProjectRemoteThenLocal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{entry(1, "Standup", nil)}))

	require.NoError(t, f.svc.AssignProject(ctx, 1, ptr(7)))

	got := f.entries.get(1, 1)
	require.NotNil(t, got.ProjectID)
	assert.Equal(t, int64(7), *got.ProjectID)
}

func TestSyncService_FailedRemoteAssignLeavesCacheUnchanged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{entry(1, "Standup", ptr(3))}))

	f.tracker.updateProject = func(_ context.Context, _, _ int64, _ *int64) error {
		return &driven.RemoteError{Kind: driven.ErrNotFound, Op: "update entry project", StatusCode: 404}
	}

	err := f.svc.AssignProject(ctx, 1, ptr(7))
	require.ErrorIs(t, err, driven.ErrNotFound)

	got := f.entries.get(1, 1)
	require.NotNil(t, got.ProjectID)
	assert.Equal(t, int64(3), *got.ProjectID)
	assert.False(t, f.svc.Busy())
}

func TestSyncService_AssignProjectSameProjectSkipsRemote(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{entry(1, "Standup", ptr(3))}))

	require.NoError(t, f.svc.AssignProject(ctx, 1, ptr(3)))
	assert.Empty(t, f.tracker.projectUpdates)
}

func TestSyncService_AssignProjectBatchReportsFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{
		entry(1, "Standup", nil), entry(2, "Standup", nil), entry(3, "Standup", nil),
	}))

	f.tracker.updateProject = func(_ context.Context, _, entryID int64, _ *int64) error {
		if entryID == 2 {
			return &driven.RemoteError{Kind: driven.ErrRejected, Op: "update entry project", StatusCode: 400}
		}
		return nil
	}

	res, err := f.svc.AssignProjectBatch(ctx, []int64{1, 2, 3}, ptr(9))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed())

	assert.Nil(t, f.entries.get(1, 2).ProjectID)
	require.NotNil(t, f.entries.get(1, 3).ProjectID)
}

func TestSyncService_AssignProjectBatchStopsOnAuth(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{
		entry(1, "Standup", nil), entry(2, "Standup", nil),
	}))
	f.tracker.updateProject = func(_ context.Context, _, _ int64, _ *int64) error {
		return authErr("update entry project")
	}

	res, err := f.svc.AssignProjectBatch(ctx, []int64{1, 2}, ptr(9))
	require.ErrorIs(t, err, driven.ErrAuth)
	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, []int64{1}, f.tracker.projectUpdates, "auth failure is never retried")
}

func TestSyncService_SecondMutationWhileInFlight(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{entry(1, "Standup", nil)}))

	entered := make(chan struct{})
	unblock := make(chan struct{})
	f.tracker.updateProject = func(_ context.Context, _, _ int64, _ *int64) error {
		close(entered)
		<-unblock
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- f.svc.AssignProject(ctx, 1, ptr(4)) }()
	<-entered

	assert.True(t, f.svc.Busy())
	err := f.svc.Rename(ctx, 1, "Other")
	require.ErrorIs(t, err, application.ErrMutationInFlight)

	close(unblock)
	require.NoError(t, <-done)
	assert.False(t, f.svc.Busy())
}

func TestSyncService_Rename(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{entry(1, "Standup", nil)}))

	require.NoError(t, f.svc.Rename(ctx, 1, "Daily standup"))
	assert.Equal(t, "Daily standup", f.entries.get(1, 1).Description)

	f.tracker.updateDesc = func(_ context.Context, _, _ int64, _ string) error {
		return authErr("update entry description")
	}
	err := f.svc.Rename(ctx, 1, "Broken")
	require.ErrorIs(t, err, driven.ErrAuth)
	assert.Equal(t, "Daily standup", f.entries.get(1, 1).Description)
}

func TestSyncService_RenameUnknownEntry(t *testing.T) {
	f := newFixture()

	err := f.svc.Rename(context.Background(), 42, "x")
	require.ErrorIs(t, err, driven.ErrNotFound)
}

func TestSyncService_StartAndStopTracking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var running *model.Entry
	f.tracker.startEntry = func(_ context.Context, workspaceID int64, description string) (model.Entry, error) {
		assert.Equal(t, int64(10), workspaceID)
		e := model.Entry{ID: 50, WorkspaceID: workspaceID, Description: description, Start: base}
		running = &e
		return e, nil
	}
	f.tracker.currentEntry = func(_ context.Context) (*model.Entry, error) {
		return running, nil
	}
	f.tracker.stopEntry = func(_ context.Context, _, entryID int64) (model.Entry, error) {
		stop := base.Add(30 * time.Minute)
		dur := int64(1800)
		e := *running
		e.Stop, e.Duration = &stop, &dur
		running = nil
		return e, nil
	}

	started, err := f.svc.StartTracking(ctx, "Deep work")
	require.NoError(t, err)
	assert.Equal(t, int64(50), started.ID)

	cached, err := f.svc.CachedRunning(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Deep work", cached.Description)

	stopped, err := f.svc.StopTracking(ctx)
	require.NoError(t, err)
	require.NotNil(t, stopped.Duration)
	assert.Equal(t, int64(1800), *stopped.Duration)

	cached, err = f.svc.CachedRunning(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)

	_, err = f.svc.StopTracking(ctx)
	require.ErrorIs(t, err, driven.ErrNotFound)
}

func TestSyncService_StartTrackingDoesNotRetryTransient(t *testing.T) {
	f := newFixture()
	var calls atomic.Int32
	f.tracker.startEntry = func(_ context.Context, _ int64, _ string) (model.Entry, error) {
		calls.Add(1)
		return model.Entry{}, transientErr("start entry")
	}

	_, err := f.svc.StartTracking(context.Background(), "x")
	require.ErrorIs(t, err, driven.ErrTransient)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSyncService_AccountScopedReads(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{entry(1, "Mine", nil)}))
	require.NoError(t, f.entries.UpsertEntries(ctx, 2, []model.Entry{entry(2, "Theirs", nil)}))

	f.session.SetAccount(model.Account{ID: 2})
	entries, err := f.svc.LoadEntries(ctx, week(), model.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Theirs", entries[0].Description)
}

func TestSyncService_ReadsWithoutAccount(t *testing.T) {
	f := newFixture()

	_, err := f.svc.LoadEntries(context.Background(), week(), model.EntryFilter{})
	require.ErrorIs(t, err, driven.ErrNoAccount)
}

func TestSyncService_WipeAllForgetsAccount(t *testing.T) {
	f := newFixture()
	f.session.SetAccount(model.Account{ID: 1})

	require.NoError(t, f.svc.Wipe(context.Background(), model.WipeAll))
	assert.Equal(t, []model.WipeScope{model.WipeAll}, f.syncs.wiped)
	_, ok := f.session.Account()
	assert.False(t, ok)
	assert.True(t, f.session.HasClient())
}

func TestSyncService_ErrorsKeepTaxonomy(t *testing.T) {
	f := newFixture()
	f.tracker.me = func(_ context.Context) (model.Account, error) {
		return model.Account{}, authErr("me")
	}

	_, _, err := f.svc.ResolveAccount(context.Background())
	require.Error(t, err)
	var rerr *driven.RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 401, rerr.StatusCode)
}

func TestSyncService_StoredAccountOfPreviousTokenIsNotWrittenTo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.accounts.current = &model.Account{ID: 1}
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{entry(1, "Old token", nil)}))

	f.tracker.me = func(_ context.Context) (model.Account, error) {
		return model.Account{ID: 2, DefaultWorkspaceID: 10}, nil
	}
	f.tracker.fetchEntries = func(_ context.Context, _, _ time.Time) ([]model.Entry, error) {
		return []model.Entry{entry(3, "New token", nil)}, nil
	}

	entries, err := f.svc.LoadEntries(ctx, week(), model.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Old token", entries[0].Description)

	res, err := f.svc.BulkPull(ctx, week())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Account.ID)
	assert.Len(t, f.entries.rows[2], 1)
	assert.Len(t, f.entries.rows[1], 1, "rows of the previous account must be untouched")

	require.NoError(t, f.svc.Rename(ctx, 3, "Renamed"))
	assert.Equal(t, "Renamed", f.entries.get(2, 3).Description)
}

func TestSyncService_UnresolvedAccountBlocksWrites(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.accounts.current = &model.Account{ID: 1}
	f.tracker.me = func(_ context.Context) (model.Account, error) {
		return model.Account{}, transientErr("me")
	}
	f.tracker.fetchEntries = func(_ context.Context, _, _ time.Time) ([]model.Entry, error) {
		return []model.Entry{entry(3, "New token", nil)}, nil
	}

	_, err := f.svc.LoadEntries(ctx, week(), model.EntryFilter{})
	require.NoError(t, err)

	_, err = f.svc.BulkPull(ctx, week())
	require.ErrorIs(t, err, driven.ErrTransient)
	assert.Empty(t, f.entries.rows[1])

	err = f.svc.AssignProject(ctx, 3, ptr(5))
	require.ErrorIs(t, err, driven.ErrTransient)
	assert.False(t, f.svc.Busy())
}

func runningEntry(id int64, desc string) model.Entry {
	return model.Entry{ID: id, WorkspaceID: 10, Description: desc, Start: base}
}

func TestSyncService_StopTrackingClosesStaleCachedRow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{runningEntry(40, "Stopped elsewhere")}))

	_, err := f.svc.StopTracking(ctx)
	require.ErrorIs(t, err, driven.ErrNotFound)

	cached, err := f.svc.CachedRunning(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)
	assert.NotNil(t, f.entries.get(1, 40).Duration)
}

func TestSyncService_StopTrackingClosesOtherCachedRow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{runningEntry(40, "Stale")}))

	remote := runningEntry(50, "Remote")
	f.tracker.currentEntry = func(_ context.Context) (*model.Entry, error) {
		e := remote
		return &e, nil
	}
	f.tracker.stopEntry = func(_ context.Context, _, entryID int64) (model.Entry, error) {
		assert.Equal(t, int64(50), entryID)
		e := remote
		stop := base.Add(time.Hour)
		dur := int64(3600)
		e.Stop, e.Duration = &stop, &dur
		return e, nil
	}

	stopped, err := f.svc.StopTracking(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), stopped.ID)

	cached, err := f.svc.CachedRunning(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached, "no cached row may stay running once the remote confirmed the stop")
	assert.Equal(t, int64(3600), *f.entries.get(1, 50).Duration)
}

func TestSyncService_RefreshCurrentClosesStaleCachedRow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.entries.UpsertEntries(ctx, 1, []model.Entry{runningEntry(40, "Stale")}))

	current, err := f.svc.RefreshCurrent(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	cached, err := f.svc.CachedRunning(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

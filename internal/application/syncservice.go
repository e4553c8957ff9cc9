package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
	"github.com/ericfisherdev/timeguru/internal/domain/processor"
)

// PullResult summarises one bulk pull.
type PullResult struct {
	RunID    string
	Account  model.Account
	Entries  int
	Projects int
	At       time.Time
}

// BatchResult reports a mutation applied to several entries.
type BatchResult struct {
	Total     int
	Succeeded int
	Errors    []error
}

// Failed returns the number of entries the mutation could not be applied to.
func (r BatchResult) Failed() int {
	return len(r.Errors)
}

// SyncService coordinates the remote service and the local cache. Pulls
// replace cached data per resource kind; mutations are confirmed remotely
// before they are written to the cache.
type SyncService struct {
	session  *Session
	entries  driven.EntryStore
	projects driven.ProjectStore
	syncs    driven.SyncStore
	accounts driven.AccountStore
	retry    RetryPolicy
	gate     MutationGate
	now      func() time.Time
}

// NewSyncService creates a SyncService with all required dependencies.
func NewSyncService(
	session *Session,
	entries driven.EntryStore,
	projects driven.ProjectStore,
	syncs driven.SyncStore,
	accounts driven.AccountStore,
	retry RetryPolicy,
) *SyncService {
	return &SyncService{
		session:  session,
		entries:  entries,
		projects: projects,
		syncs:    syncs,
		accounts: accounts,
		retry:    retry,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Session returns the session the service operates on.
func (s *SyncService) Session() *Session {
	return s.session
}

// Busy reports whether a mutation is in flight.
func (s *SyncService) Busy() bool {
	return s.gate.Busy()
}

func (s *SyncService) client() (driven.TimeTracker, error) {
	c := s.session.Client()
	if c == nil {
		return nil, driven.ErrNoClient
	}
	return c, nil
}

// ResolveAccount asks the remote service who owns the configured token and
// makes that account current. switched is true when a different account was
// current before.
func (s *SyncService) ResolveAccount(ctx context.Context) (acct model.Account, switched bool, err error) {
	client, err := s.client()
	if err != nil {
		return model.Account{}, false, err
	}

	err = s.retry.Do(ctx, "fetch account", func(ctx context.Context) error {
		var ferr error
		acct, ferr = client.Me(ctx)
		return ferr
	})
	if err != nil {
		return model.Account{}, false, fmt.Errorf("resolve account: %w", err)
	}

	prev, err := s.accounts.Current(ctx)
	switch {
	case errors.Is(err, driven.ErrNoAccount):
	case err != nil:
		return model.Account{}, false, fmt.Errorf("resolve account: %w", err)
	default:
		switched = prev.ID != acct.ID
	}

	acct.LastSeenAt = s.now()
	if err := s.accounts.SetCurrent(ctx, acct); err != nil {
		return model.Account{}, false, fmt.Errorf("resolve account: %w", err)
	}
	s.session.SetAccount(acct)

	if switched {
		slog.Info("account switched", "from", prev.ID, "to", acct.ID, "email", acct.Email)
	}
	return acct, switched, nil
}

// CurrentAccount returns the account local reads are scoped to, falling back
// to the account stored by the last sync. The stored account is not promoted
// into the session: it may belong to a previous token.
func (s *SyncService) CurrentAccount(ctx context.Context) (model.Account, error) {
	if acct, ok := s.session.Account(); ok {
		return acct, nil
	}
	acct, err := s.accounts.Current(ctx)
	if err != nil {
		return model.Account{}, err
	}
	return *acct, nil
}

// liveAccount returns the account that owns the session's client, asking the
// remote service unless it already confirmed the account for this client.
func (s *SyncService) liveAccount(ctx context.Context) (model.Account, error) {
	if acct, ok := s.session.Resolved(); ok {
		return acct, nil
	}
	acct, _, err := s.ResolveAccount(ctx)
	return acct, err
}

// BulkPull fetches entries in rng and every project, then commits each
// resource kind atomically. Nothing is written unless both fetches succeed.
func (s *SyncService) BulkPull(ctx context.Context, rng model.DateRange) (PullResult, error) {
	client, err := s.client()
	if err != nil {
		return PullResult{}, err
	}
	acct, err := s.liveAccount(ctx)
	if err != nil {
		return PullResult{}, err
	}

	runID := uuid.NewString()
	logger := slog.With("run_id", runID, "account_id", acct.ID)
	started := time.Now()
	logger.Info("bulk pull started", "start", rng.Start, "end", rng.End)

	var (
		entries  []model.Entry
		projects []model.Project
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.retry.Do(gctx, "fetch entries", func(ctx context.Context) error {
			var ferr error
			entries, ferr = client.FetchEntries(ctx, rng.Start, rng.End)
			return ferr
		})
	})
	g.Go(func() error {
		return s.retry.Do(gctx, "fetch projects", func(ctx context.Context) error {
			var ferr error
			projects, ferr = client.FetchProjects(ctx)
			return ferr
		})
	})
	if err := g.Wait(); err != nil {
		logger.Error("bulk pull fetch failed", "error", err)
		return PullResult{}, fmt.Errorf("bulk pull: %w", err)
	}

	at := s.now()
	if err := s.syncs.CommitProjects(ctx, acct.ID, projects, at); err != nil {
		logger.Error("bulk pull commit failed", "kind", model.ResourceProjects, "error", err)
		return PullResult{}, fmt.Errorf("bulk pull: commit projects: %w", err)
	}
	if err := s.syncs.CommitEntries(ctx, acct.ID, entries, at); err != nil {
		logger.Error("bulk pull commit failed", "kind", model.ResourceEntries, "error", err)
		return PullResult{}, fmt.Errorf("bulk pull: commit entries: %w", err)
	}

	logger.Info("bulk pull complete",
		"entries", len(entries),
		"projects", len(projects),
		"duration", time.Since(started).Round(time.Millisecond),
	)

	return PullResult{
		RunID:    runID,
		Account:  acct,
		Entries:  len(entries),
		Projects: len(projects),
		At:       at,
	}, nil
}

// LoadEntries returns cached entries overlapping rng that match f, newest first.
func (s *SyncService) LoadEntries(ctx context.Context, rng model.DateRange, f model.EntryFilter) ([]model.Entry, error) {
	acct, err := s.CurrentAccount(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.QueryEntries(ctx, acct.ID, rng, f)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return processor.SortEntries(entries, processor.SortDateDesc), nil
}

// LoadProjects returns the cached projects of the current account.
func (s *SyncService) LoadProjects(ctx context.Context) ([]model.Project, error) {
	acct, err := s.CurrentAccount(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.projects.ListProjects(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	return projects, nil
}

// LastSync returns when kind was last pulled for the current account.
func (s *SyncService) LastSync(ctx context.Context, kind model.ResourceKind) (time.Time, bool, error) {
	acct, err := s.CurrentAccount(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	return s.syncs.LastSync(ctx, acct.ID, kind)
}

// mutation claims the gate and returns the client and account a mutation
// runs against. release must be called when err is nil.
func (s *SyncService) mutation(ctx context.Context) (client driven.TimeTracker, acct model.Account, release func(), err error) {
	release, err = s.gate.Acquire()
	if err != nil {
		return nil, model.Account{}, nil, err
	}
	client, err = s.client()
	if err == nil {
		acct, err = s.liveAccount(ctx)
	}
	if err != nil {
		release()
		return nil, model.Account{}, nil, err
	}
	return client, acct, release, nil
}

// AssignProject sets the project of one entry. projectID nil clears it.
func (s *SyncService) AssignProject(ctx context.Context, entryID int64, projectID *int64) error {
	client, acct, release, err := s.mutation(ctx)
	if err != nil {
		return err
	}
	defer release()

	return s.assignOne(ctx, client, acct, entryID, projectID)
}

// AssignProjectBatch sets the project of every entry in ids, one remote call
// per entry. Per-entry failures are collected; an authentication failure
// aborts the batch and is returned.
func (s *SyncService) AssignProjectBatch(ctx context.Context, ids []int64, projectID *int64) (BatchResult, error) {
	result := BatchResult{Total: len(ids)}

	client, acct, release, err := s.mutation(ctx)
	if err != nil {
		return result, err
	}
	defer release()

	for _, id := range ids {
		err := s.assignOne(ctx, client, acct, id, projectID)
		if err == nil {
			result.Succeeded++
			continue
		}
		result.Errors = append(result.Errors, err)
		if errors.Is(err, driven.ErrAuth) || ctx.Err() != nil {
			return result, err
		}
	}

	slog.Info("batch project assignment",
		"account_id", acct.ID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed(),
	)
	return result, nil
}

func (s *SyncService) assignOne(ctx context.Context, client driven.TimeTracker, acct model.Account, entryID int64, projectID *int64) error {
	cached, err := s.entries.GetEntry(ctx, acct.ID, entryID)
	if err != nil {
		return fmt.Errorf("assign project to entry %d: %w", entryID, err)
	}
	if model.SameProject(cached.ProjectID, projectID) {
		return nil
	}

	err = s.retry.Do(ctx, "update entry project", func(ctx context.Context) error {
		return client.UpdateEntryProject(ctx, cached.WorkspaceID, entryID, projectID)
	})
	if err != nil {
		return fmt.Errorf("assign project to entry %d: %w", entryID, err)
	}

	if err := s.entries.UpdateEntryProject(ctx, acct.ID, entryID, projectID); err != nil {
		return fmt.Errorf("assign project to entry %d: %w", entryID, err)
	}
	return nil
}

// Rename replaces the description of one entry.
func (s *SyncService) Rename(ctx context.Context, entryID int64, text string) error {
	client, acct, release, err := s.mutation(ctx)
	if err != nil {
		return err
	}
	defer release()

	cached, err := s.entries.GetEntry(ctx, acct.ID, entryID)
	if err != nil {
		return fmt.Errorf("rename entry %d: %w", entryID, err)
	}
	if cached.Description == text {
		return nil
	}

	err = s.retry.Do(ctx, "update entry description", func(ctx context.Context) error {
		return client.UpdateEntryDescription(ctx, cached.WorkspaceID, entryID, text)
	})
	if err != nil {
		return fmt.Errorf("rename entry %d: %w", entryID, err)
	}

	if err := s.entries.UpdateEntryDescription(ctx, acct.ID, entryID, text); err != nil {
		return fmt.Errorf("rename entry %d: %w", entryID, err)
	}
	return nil
}

// StartTracking starts a new running entry in the account's default
// workspace. Any entry cached as running is closed by the store.
func (s *SyncService) StartTracking(ctx context.Context, description string) (model.Entry, error) {
	client, acct, release, err := s.mutation(ctx)
	if err != nil {
		return model.Entry{}, err
	}
	defer release()

	var started model.Entry
	err = s.retry.DoRateLimited(ctx, "start entry", func(ctx context.Context) error {
		var serr error
		started, serr = client.StartEntry(ctx, acct.DefaultWorkspaceID, description)
		return serr
	})
	if err != nil {
		return model.Entry{}, fmt.Errorf("start tracking: %w", err)
	}

	if err := s.entries.UpsertEntries(ctx, acct.ID, []model.Entry{started}); err != nil {
		return model.Entry{}, fmt.Errorf("start tracking: %w", err)
	}
	slog.Info("tracking started", "entry_id", started.ID, "description", started.Description)
	return started, nil
}

// StopTracking stops the entry the remote service reports as running.
// It returns ErrNotFound when nothing is running.
func (s *SyncService) StopTracking(ctx context.Context) (model.Entry, error) {
	client, acct, release, err := s.mutation(ctx)
	if err != nil {
		return model.Entry{}, err
	}
	defer release()

	current, err := s.fetchCurrent(ctx, client)
	if err != nil {
		return model.Entry{}, fmt.Errorf("stop tracking: %w", err)
	}
	if current == nil {
		if err := s.entries.CloseRunning(ctx, acct.ID, 0, s.now()); err != nil {
			return model.Entry{}, fmt.Errorf("stop tracking: %w", err)
		}
		return model.Entry{}, fmt.Errorf("stop tracking: no running entry: %w", driven.ErrNotFound)
	}

	var stopped model.Entry
	err = s.retry.Do(ctx, "stop entry", func(ctx context.Context) error {
		var serr error
		stopped, serr = client.StopEntry(ctx, current.WorkspaceID, current.ID)
		return serr
	})
	if err != nil {
		return model.Entry{}, fmt.Errorf("stop tracking: %w", err)
	}

	if err := s.entries.UpsertEntries(ctx, acct.ID, []model.Entry{stopped}); err != nil {
		return model.Entry{}, fmt.Errorf("stop tracking: %w", err)
	}
	// The cached running row may be a different entry stopped elsewhere.
	if err := s.entries.CloseRunning(ctx, acct.ID, stopped.ID, s.now()); err != nil {
		return model.Entry{}, fmt.Errorf("stop tracking: %w", err)
	}
	slog.Info("tracking stopped", "entry_id", stopped.ID)
	return stopped, nil
}

// RefreshCurrent fetches the running entry and caches it. It returns nil
// when nothing is running.
func (s *SyncService) RefreshCurrent(ctx context.Context) (*model.Entry, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	acct, err := s.liveAccount(ctx)
	if err != nil {
		return nil, err
	}

	current, err := s.fetchCurrent(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("refresh current entry: %w", err)
	}
	if current == nil {
		if err := s.entries.CloseRunning(ctx, acct.ID, 0, s.now()); err != nil {
			return nil, fmt.Errorf("refresh current entry: %w", err)
		}
		return nil, nil
	}
	if err := s.entries.UpsertEntries(ctx, acct.ID, []model.Entry{*current}); err != nil {
		return nil, fmt.Errorf("refresh current entry: %w", err)
	}
	return current, nil
}

// CachedRunning returns the running entry from the local cache, or nil.
func (s *SyncService) CachedRunning(ctx context.Context) (*model.Entry, error) {
	acct, err := s.CurrentAccount(ctx)
	if err != nil {
		return nil, err
	}
	return s.entries.RunningEntry(ctx, acct.ID)
}

func (s *SyncService) fetchCurrent(ctx context.Context, client driven.TimeTracker) (*model.Entry, error) {
	var current *model.Entry
	err := s.retry.Do(ctx, "fetch current entry", func(ctx context.Context) error {
		var ferr error
		current, ferr = client.CurrentEntry(ctx)
		return ferr
	})
	return current, err
}

// Wipe deletes cached data. WipeAll also forgets the current account.
func (s *SyncService) Wipe(ctx context.Context, scope model.WipeScope) error {
	if err := s.syncs.Wipe(ctx, scope); err != nil {
		return fmt.Errorf("wipe %s: %w", scope, err)
	}
	if scope == model.WipeAll {
		s.session.Replace(s.session.Client())
	}
	slog.Info("local data wiped", "scope", scope)
	return nil
}

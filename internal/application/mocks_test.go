package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/ericfisherdev/timeguru/internal/application"
	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockTracker struct {
	mu sync.Mutex

	me             func(ctx context.Context) (model.Account, error)
	fetchEntries   func(ctx context.Context, start, end time.Time) ([]model.Entry, error)
	fetchProjects  func(ctx context.Context) ([]model.Project, error)
	updateProject  func(ctx context.Context, workspaceID, entryID int64, projectID *int64) error
	updateDesc     func(ctx context.Context, workspaceID, entryID int64, text string) error
	startEntry     func(ctx context.Context, workspaceID int64, description string) (model.Entry, error)
	stopEntry      func(ctx context.Context, workspaceID, entryID int64) (model.Entry, error)
	currentEntry   func(ctx context.Context) (*model.Entry, error)
	projectUpdates []int64
}

func (m *mockTracker) Me(ctx context.Context) (model.Account, error) {
	if m.me == nil {
		return model.Account{ID: 1, Email: "dev@example.com", DefaultWorkspaceID: 10}, nil
	}
	return m.me(ctx)
}

func (m *mockTracker) FetchEntries(ctx context.Context, start, end time.Time) ([]model.Entry, error) {
	if m.fetchEntries == nil {
		return nil, nil
	}
	return m.fetchEntries(ctx, start, end)
}

func (m *mockTracker) FetchProjects(ctx context.Context) ([]model.Project, error) {
	if m.fetchProjects == nil {
		return nil, nil
	}
	return m.fetchProjects(ctx)
}

func (m *mockTracker) UpdateEntryProject(ctx context.Context, workspaceID, entryID int64, projectID *int64) error {
	m.mu.Lock()
	m.projectUpdates = append(m.projectUpdates, entryID)
	m.mu.Unlock()
	if m.updateProject == nil {
		return nil
	}
	return m.updateProject(ctx, workspaceID, entryID, projectID)
}

func (m *mockTracker) UpdateEntryDescription(ctx context.Context, workspaceID, entryID int64, text string) error {
	if m.updateDesc == nil {
		return nil
	}
	return m.updateDesc(ctx, workspaceID, entryID, text)
}

func (m *mockTracker) StartEntry(ctx context.Context, workspaceID int64, description string) (model.Entry, error) {
	return m.startEntry(ctx, workspaceID, description)
}

func (m *mockTracker) StopEntry(ctx context.Context, workspaceID, entryID int64) (model.Entry, error) {
	return m.stopEntry(ctx, workspaceID, entryID)
}

func (m *mockTracker) CurrentEntry(ctx context.Context) (*model.Entry, error) {
	if m.currentEntry == nil {
		return nil, nil
	}
	return m.currentEntry(ctx)
}

// memEntryStore keeps entries per account in memory.
type memEntryStore struct {
	mu      sync.Mutex
	rows    map[int64]map[int64]model.Entry
	upserts int
	closes  int
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{rows: make(map[int64]map[int64]model.Entry)}
}

func (m *memEntryStore) UpsertEntries(_ context.Context, accountID int64, entries []model.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.rows[accountID] == nil {
		m.rows[accountID] = make(map[int64]model.Entry)
	}
	for _, e := range entries {
		e.AccountID = accountID
		m.rows[accountID][e.ID] = e
	}
	return nil
}

func (m *memEntryStore) QueryEntries(_ context.Context, accountID int64, r model.DateRange, _ model.EntryFilter) ([]model.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Entry
	for _, e := range m.rows[accountID] {
		if r.Overlaps(e.Start, e.Stop) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEntryStore) GetEntry(_ context.Context, accountID, entryID int64) (*model.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[accountID][entryID]
	if !ok {
		return nil, driven.ErrNotFound
	}
	return &e, nil
}

func (m *memEntryStore) RunningEntry(_ context.Context, accountID int64) (*model.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows[accountID] {
		if e.IsRunning() {
			return &e, nil
		}
	}
	return nil, nil
}

func (m *memEntryStore) UpdateEntryProject(_ context.Context, accountID, entryID int64, projectID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[accountID][entryID]
	if !ok {
		return driven.ErrNotFound
	}
	e.ProjectID = projectID
	m.rows[accountID][entryID] = e
	return nil
}

func (m *memEntryStore) UpdateEntryDescription(_ context.Context, accountID, entryID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[accountID][entryID]
	if !ok {
		return driven.ErrNotFound
	}
	e.Description = text
	m.rows[accountID][entryID] = e
	return nil
}

func (m *memEntryStore) CloseRunning(_ context.Context, accountID, keepID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	for id, e := range m.rows[accountID] {
		if id == keepID || !e.IsRunning() {
			continue
		}
		stop := at
		if stop.Before(e.Start) {
			stop = e.Start
		}
		dur := int64(stop.Sub(e.Start) / time.Second)
		e.Stop, e.Duration = &stop, &dur
		m.rows[accountID][id] = e
	}
	return nil
}

func (m *memEntryStore) get(accountID, entryID int64) model.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[accountID][entryID]
}

type mockProjectStore struct {
	projects map[int64][]model.Project
}

func (m *mockProjectStore) UpsertProjects(_ context.Context, accountID int64, projects []model.Project) error {
	if m.projects == nil {
		m.projects = make(map[int64][]model.Project)
	}
	m.projects[accountID] = projects
	return nil
}

func (m *mockProjectStore) ListProjects(_ context.Context, accountID int64) ([]model.Project, error) {
	return m.projects[accountID], nil
}

func (m *mockProjectStore) GetProject(_ context.Context, accountID, projectID int64) (*model.Project, error) {
	for _, p := range m.projects[accountID] {
		if p.ID == projectID {
			return &p, nil
		}
	}
	return nil, driven.ErrNotFound
}

type syncKey struct {
	account int64
	kind    model.ResourceKind
}

// mockSyncStore commits into the entry and project mocks so that a failing
// commit can be observed as "nothing written".
type mockSyncStore struct {
	entries  *memEntryStore
	projects *mockProjectStore
	last     map[syncKey]time.Time

	commitEntriesErr  error
	commitProjectsErr error
	wiped             []model.WipeScope
}

func (m *mockSyncStore) RecordSync(_ context.Context, accountID int64, kind model.ResourceKind, at time.Time) error {
	if m.last == nil {
		m.last = make(map[syncKey]time.Time)
	}
	m.last[syncKey{accountID, kind}] = at
	return nil
}

func (m *mockSyncStore) LastSync(_ context.Context, accountID int64, kind model.ResourceKind) (time.Time, bool, error) {
	at, ok := m.last[syncKey{accountID, kind}]
	return at, ok, nil
}

func (m *mockSyncStore) CommitEntries(ctx context.Context, accountID int64, entries []model.Entry, at time.Time) error {
	if m.commitEntriesErr != nil {
		return m.commitEntriesErr
	}
	if err := m.entries.UpsertEntries(ctx, accountID, entries); err != nil {
		return err
	}
	return m.RecordSync(ctx, accountID, model.ResourceEntries, at)
}

func (m *mockSyncStore) CommitProjects(ctx context.Context, accountID int64, projects []model.Project, at time.Time) error {
	if m.commitProjectsErr != nil {
		return m.commitProjectsErr
	}
	if err := m.projects.UpsertProjects(ctx, accountID, projects); err != nil {
		return err
	}
	return m.RecordSync(ctx, accountID, model.ResourceProjects, at)
}

func (m *mockSyncStore) Wipe(_ context.Context, scope model.WipeScope) error {
	m.wiped = append(m.wiped, scope)
	return nil
}

type mockAccountStore struct {
	current *model.Account
	sets    int
}

func (m *mockAccountStore) SetCurrent(_ context.Context, acct model.Account) error {
	m.sets++
	m.current = &acct
	return nil
}

func (m *mockAccountStore) Current(_ context.Context) (*model.Account, error) {
	if m.current == nil {
		return nil, driven.ErrNoAccount
	}
	a := *m.current
	return &a, nil
}

// --- Fixture ---

type fixture struct {
	tracker  *mockTracker
	entries  *memEntryStore
	projects *mockProjectStore
	syncs    *mockSyncStore
	accounts *mockAccountStore
	session  *application.Session
	svc      *application.SyncService
}

func fastRetry() application.RetryPolicy {
	return application.RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func newFixture() *fixture {
	f := &fixture{
		tracker:  &mockTracker{},
		entries:  newMemEntryStore(),
		projects: &mockProjectStore{},
		accounts: &mockAccountStore{},
	}
	f.syncs = &mockSyncStore{entries: f.entries, projects: f.projects}
	f.session = application.NewSession(f.tracker, nil)
	f.svc = application.NewSyncService(f.session, f.entries, f.projects, f.syncs, f.accounts, fastRetry())
	return f
}

var base = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func entry(id int64, desc string, projectID *int64) model.Entry {
	dur := int64(600)
	stop := base.Add(time.Duration(id) * time.Hour).Add(10 * time.Minute)
	return model.Entry{
		ID:          id,
		WorkspaceID: 10,
		Description: desc,
		Start:       base.Add(time.Duration(id) * time.Hour),
		Stop:        &stop,
		Duration:    &dur,
		ProjectID:   projectID,
	}
}

func ptr(v int64) *int64 { return &v }

func week() model.DateRange {
	return model.DateRange{Start: base.AddDate(0, 0, -1), End: base.AddDate(0, 0, 6)}
}

package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

func TestEntryRepo_UpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	e := makeEntry(100, "first", testStart, 600)
	mustUpsert(t, repo, 1, e)

	e.Description = "second"
	e.Tags = []string{"deep-work"}
	mustUpsert(t, repo, 1, e, e)

	got, err := repo.QueryEntries(ctx, 1, weekRange(), model.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Description)
	assert.Equal(t, []string{"deep-work"}, got[0].Tags)
	require.NotNil(t, got[0].Stop)
	assert.Equal(t, testStart.Add(10*time.Minute), *got[0].Stop)
}

func TestEntryRepo_AccountScoping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	mustUpsert(t, repo, 1, makeEntry(100, "mine", testStart, 60))
	mustUpsert(t, repo, 2, makeEntry(100, "theirs", testStart, 60), makeEntry(101, "theirs too", testStart, 60))

	got, err := repo.QueryEntries(ctx, 1, weekRange(), model.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].Description)
	assert.Equal(t, int64(1), got[0].AccountID)

	_, err = repo.GetEntry(ctx, 1, 101)
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestEntryRepo_QueryOverlapsHalfOpenRange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	day := model.DateRange{Start: testStart, End: testStart.Add(24 * time.Hour)}
	mustUpsert(t, repo, 1,
		makeEntry(1, "before", testStart.Add(-2*time.Hour), 3600),      // ends an hour before the range
		makeEntry(2, "straddles", testStart.Add(-30*time.Minute), 3600), // overlaps start
		makeEntry(3, "inside", testStart.Add(time.Hour), 60),
		makeEntry(4, "at end", testStart.Add(24*time.Hour), 60), // end is exclusive
	)

	got, err := repo.QueryEntries(ctx, 1, day, model.EntryFilter{})
	require.NoError(t, err)

	var ids []int64
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []int64{2, 3}, ids)
}

func TestEntryRepo_QueryFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	projects := NewProjectRepo(db)
	ctx := context.Background()

	require.NoError(t, projects.UpsertProjects(ctx, 1, []model.Project{
		{ID: 10, Name: "Acme", ClientID: int64Ptr(500)},
		{ID: 20, Name: "Internal"},
	}))

	billable := makeEntry(1, "billable", testStart, 60)
	billable.ProjectID = int64Ptr(10)
	billable.Billable = true
	billable.Tags = []string{"Meeting"}
	internal := makeEntry(2, "internal", testStart, 60)
	internal.ProjectID = int64Ptr(20)
	mustUpsert(t, repo, 1, billable, internal, makeEntry(3, "none", testStart, 60))

	tag := "meeting"
	yes := true

	tests := []struct {
		name   string
		filter model.EntryFilter
		want   []int64
	}{
		{"project", model.EntryFilter{ProjectID: int64Ptr(20)}, []int64{2}},
		{"client", model.EntryFilter{ClientID: int64Ptr(500)}, []int64{1}},
		{"billable", model.EntryFilter{Billable: &yes}, []int64{1}},
		{"tag case-insensitive", model.EntryFilter{Tag: &tag}, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryEntries(ctx, 1, weekRange(), tt.filter)
			require.NoError(t, err)
			var ids []int64
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestEntryRepo_UpdateEntryProject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	mustUpsert(t, repo, 1, makeEntry(100, "work", testStart, 60))

	require.NoError(t, repo.UpdateEntryProject(ctx, 1, 100, int64Ptr(42)))
	got, err := repo.GetEntry(ctx, 1, 100)
	require.NoError(t, err)
	require.NotNil(t, got.ProjectID)
	assert.Equal(t, int64(42), *got.ProjectID)

	require.NoError(t, repo.UpdateEntryProject(ctx, 1, 100, nil))
	got, err = repo.GetEntry(ctx, 1, 100)
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)
}

func TestEntryRepo_UpdateMissingRowIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	mustUpsert(t, repo, 2, makeEntry(100, "other account", testStart, 60))

	err := repo.UpdateEntryProject(ctx, 1, 100, int64Ptr(1))
	assert.ErrorIs(t, err, driven.ErrNotFound)

	err = repo.UpdateEntryDescription(ctx, 1, 999, "nope")
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestEntryRepo_UpdateEntryDescription(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	mustUpsert(t, repo, 1, makeEntry(100, "old", testStart, 60))
	require.NoError(t, repo.UpdateEntryDescription(ctx, 1, 100, "new"))

	got, err := repo.GetEntry(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Description)
}

func TestEntryRepo_AtMostOneRunningEntry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	first := model.Entry{ID: 1, Description: "first", Start: testStart}
	mustUpsert(t, repo, 1, first)

	second := model.Entry{ID: 2, Description: "second", Start: testStart.Add(30 * time.Minute)}
	mustUpsert(t, repo, 1, second)

	running, err := repo.RunningEntry(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, running)
	assert.Equal(t, int64(2), running.ID)
	assert.True(t, running.IsRunning())

	closed, err := repo.GetEntry(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, closed.Duration)
	assert.Equal(t, int64(1800), *closed.Duration)

	// Another account may have its own running entry.
	mustUpsert(t, repo, 2, model.Entry{ID: 3, Start: testStart})
	running, err = repo.RunningEntry(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), running.ID)
}

func TestEntryRepo_RunningEntryNone(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)

	running, err := repo.RunningEntry(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, running)
}

func TestEntryRepo_CloseRunning(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	mustUpsert(t, repo, 1, model.Entry{ID: 1, Start: testStart})
	mustUpsert(t, repo, 2, model.Entry{ID: 3, Start: testStart})

	require.NoError(t, repo.CloseRunning(ctx, 1, 0, testStart.Add(45*time.Minute)))

	running, err := repo.RunningEntry(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, running)
	closed, err := repo.GetEntry(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, closed.Duration)
	assert.Equal(t, int64(2700), *closed.Duration)

	require.NoError(t, repo.CloseRunning(ctx, 2, 3, testStart.Add(time.Hour)))
	running, err = repo.RunningEntry(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, running, "keepID and other accounts are left running")
	assert.Equal(t, int64(3), running.ID)
}

func TestEntryRepo_CloseRunningNeverBeforeStart(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	mustUpsert(t, repo, 1, model.Entry{ID: 1, Start: testStart})
	require.NoError(t, repo.CloseRunning(ctx, 1, 0, testStart.Add(-time.Hour)))

	closed, err := repo.GetEntry(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, closed.Duration)
	assert.Equal(t, int64(0), *closed.Duration)
}

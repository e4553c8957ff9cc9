package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// setupTestDB opens a named shared in-memory database for one test.
// The name comes from t.Name() so parallel tests never share rows.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it cannot be read as DSN query parameters.
	safeName := url.PathEscape(t.Name())
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		safeName,
	)

	db, err := open(context.Background(), dsn, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := RunMigrations(db); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func int64Ptr(v int64) *int64 { return &v }

func makeEntry(id int64, desc string, start time.Time, secs int64) model.Entry {
	return model.Entry{
		ID:          id,
		WorkspaceID: 7,
		Description: desc,
		Start:       start,
		Duration:    int64Ptr(secs),
		Tags:        []string{},
	}
}

func weekRange() model.DateRange {
	return model.DateRange{Start: testStart.Add(-24 * time.Hour), End: testStart.Add(6 * 24 * time.Hour)}
}

func mustUpsert(t *testing.T, repo *EntryRepo, accountID int64, entries ...model.Entry) {
	t.Helper()
	require.NoError(t, repo.UpsertEntries(context.Background(), accountID, entries))
}

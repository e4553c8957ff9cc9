package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SyncStore = (*SyncRepo)(nil)

// SyncRepo is the SQLite implementation of the SyncStore port interface.
type SyncRepo struct {
	db *DB
}

// NewSyncRepo creates a new SyncRepo backed by the given DB.
func NewSyncRepo(db *DB) *SyncRepo {
	return &SyncRepo{db: db}
}

// RecordSync stores at as the last successful pull of kind.
func (r *SyncRepo) RecordSync(ctx context.Context, accountID int64, kind model.ResourceKind, at time.Time) error {
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		return recordSyncTx(ctx, tx, accountID, kind, at)
	})
	if err != nil {
		return storeErr(fmt.Sprintf("record %s sync", kind), err)
	}
	return nil
}

func recordSyncTx(ctx context.Context, tx *sql.Tx, accountID int64, kind model.ResourceKind, at time.Time) error {
	const query = `
		INSERT INTO sync_metadata (account_id, resource_kind, last_sync) VALUES (?, ?, ?)
		ON CONFLICT(account_id, resource_kind) DO UPDATE SET last_sync = excluded.last_sync
	`
	if _, err := tx.ExecContext(ctx, query, accountID, string(kind), formatTime(at)); err != nil {
		return fmt.Errorf("write sync metadata: %w", err)
	}
	return nil
}

// LastSync returns the last pull time of kind. ok is false when never synced.
func (r *SyncRepo) LastSync(ctx context.Context, accountID int64, kind model.ResourceKind) (time.Time, bool, error) {
	const query = `SELECT last_sync FROM sync_metadata WHERE account_id = ? AND resource_kind = ?`

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var raw string
	err := r.db.conn.QueryRowContext(ctx, query, accountID, string(kind)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, storeErr(fmt.Sprintf("read %s sync", kind), err)
	}

	at, err := parseTime(raw)
	if err != nil {
		return time.Time{}, false, storeErr(fmt.Sprintf("parse %s sync", kind), err)
	}
	return at, true, nil
}

// CommitEntries upserts entries and records the entries sync atomically.
// On failure neither the rows nor last_sync change.
func (r *SyncRepo) CommitEntries(ctx context.Context, accountID int64, entries []model.Entry, at time.Time) error {
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		if err := upsertEntriesTx(ctx, tx, accountID, entries, at); err != nil {
			return err
		}
		return recordSyncTx(ctx, tx, accountID, model.ResourceEntries, at)
	})
	if err != nil {
		return storeErr("commit entries", err)
	}
	return nil
}

// CommitProjects upserts projects and records the projects sync atomically.
func (r *SyncRepo) CommitProjects(ctx context.Context, accountID int64, projects []model.Project, at time.Time) error {
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		if err := upsertProjectsTx(ctx, tx, accountID, projects, at); err != nil {
			return err
		}
		return recordSyncTx(ctx, tx, accountID, model.ResourceProjects, at)
	})
	if err != nil {
		return storeErr("commit projects", err)
	}
	return nil
}

// Wipe deletes cached rows. WipeEntries keeps projects, accounts and
// credentials; WipeAll empties every table.
func (r *SyncRepo) Wipe(ctx context.Context, scope model.WipeScope) error {
	var statements []string
	switch scope {
	case model.WipeEntries:
		statements = []string{
			`DELETE FROM time_entries`,
			`DELETE FROM sync_metadata WHERE resource_kind = 'entries'`,
		}
	case model.WipeAll:
		statements = []string{
			`DELETE FROM time_entries`,
			`DELETE FROM projects`,
			`DELETE FROM sync_metadata`,
			`DELETE FROM accounts`,
			`DELETE FROM credentials`,
		}
	default:
		return fmt.Errorf("wipe: unknown scope %q", scope)
	}

	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", stmt, err)
			}
		}
		return nil
	})
	if err != nil {
		return storeErr(fmt.Sprintf("wipe %s", scope), err)
	}
	return nil
}

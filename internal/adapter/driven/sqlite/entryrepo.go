package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EntryStore = (*EntryRepo)(nil)

// EntryRepo is the SQLite implementation of the EntryStore port interface.
type EntryRepo struct {
	db *DB
}

// NewEntryRepo creates a new EntryRepo backed by the given DB.
func NewEntryRepo(db *DB) *EntryRepo {
	return &EntryRepo{db: db}
}

const entryColumns = `e.id, e.account_id, e.workspace_id, e.project_id, e.description,
	e.start, e.stop, e.duration, e.tags, e.billable, e.updated_at`

// UpsertEntries replaces any rows sharing (id, account) in one transaction.
func (r *EntryRepo) UpsertEntries(ctx context.Context, accountID int64, entries []model.Entry) error {
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		return upsertEntriesTx(ctx, tx, accountID, entries, time.Now())
	})
	if err != nil {
		return storeErr("upsert entries", err)
	}
	return nil
}

func upsertEntriesTx(ctx context.Context, tx *sql.Tx, accountID int64, entries []model.Entry, syncedAt time.Time) error {
	const query = `
		INSERT INTO time_entries (id, account_id, workspace_id, project_id, description, start, stop,
			duration, tags, billable, updated_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, account_id) DO UPDATE SET
			workspace_id = excluded.workspace_id,
			project_id   = excluded.project_id,
			description  = excluded.description,
			start        = excluded.start,
			stop         = excluded.stop,
			duration     = excluded.duration,
			tags         = excluded.tags,
			billable     = excluded.billable,
			updated_at   = excluded.updated_at,
			synced_at    = excluded.synced_at
	`

	for _, e := range entries {
		if e.IsRunning() {
			if err := closeOtherRunning(ctx, tx, accountID, e.ID, e.Start); err != nil {
				return err
			}
		}

		stop := e.Stop
		if stop == nil && e.Duration != nil {
			end := e.Start.Add(time.Duration(*e.Duration) * time.Second)
			stop = &end
		}
		if e.IsRunning() {
			stop = nil
		}

		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("marshal tags for entry %d: %w", e.ID, err)
		}

		updatedAt := e.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = syncedAt
		}

		if _, err := tx.ExecContext(ctx, query,
			e.ID, accountID, e.WorkspaceID, e.ProjectID, e.Description,
			formatTime(e.Start), nullTime(stop), e.Duration, string(tagsJSON),
			boolInt(e.Billable), formatTime(updatedAt), formatTime(syncedAt),
		); err != nil {
			return fmt.Errorf("upsert entry %d: %w", e.ID, err)
		}
	}
	return nil
}

// closeOtherRunning stops any running row of the account other than keepID at
// the given time, keeping the one-running-entry invariant.
func closeOtherRunning(ctx context.Context, tx *sql.Tx, accountID, keepID int64, at time.Time) error {
	const selectQuery = `SELECT id, start FROM time_entries WHERE account_id = ? AND duration IS NULL AND id != ?`

	type running struct {
		id    int64
		start time.Time
	}
	var stale []running

	rows, err := tx.QueryContext(ctx, selectQuery, accountID, keepID)
	if err != nil {
		return fmt.Errorf("find running entries: %w", err)
	}
	for rows.Next() {
		var id int64
		var start string
		if err := rows.Scan(&id, &start); err != nil {
			rows.Close()
			return fmt.Errorf("scan running entry: %w", err)
		}
		t, err := parseTime(start)
		if err != nil {
			rows.Close()
			return fmt.Errorf("parse start of running entry %d: %w", id, err)
		}
		stale = append(stale, running{id: id, start: t})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate running entries: %w", err)
	}
	rows.Close()

	const stopQuery = `UPDATE time_entries SET stop = ?, duration = ? WHERE id = ? AND account_id = ?`
	for _, s := range stale {
		stopAt := at
		if stopAt.Before(s.start) {
			stopAt = s.start
		}
		secs := int64(stopAt.Sub(s.start) / time.Second)
		if _, err := tx.ExecContext(ctx, stopQuery, formatTime(stopAt), secs, s.id, accountID); err != nil {
			return fmt.Errorf("stop running entry %d: %w", s.id, err)
		}
	}
	return nil
}

// CloseRunning stops the account's running rows other than keepID at at.
func (r *EntryRepo) CloseRunning(ctx context.Context, accountID, keepID int64, at time.Time) error {
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		return closeOtherRunning(ctx, tx, accountID, keepID, at)
	})
	if err != nil {
		return storeErr("close running entries", err)
	}
	return nil
}

// QueryEntries returns the account's entries overlapping the half-open range r
// that also satisfy f. Order is unspecified.
func (r *EntryRepo) QueryEntries(ctx context.Context, accountID int64, rng model.DateRange, f model.EntryFilter) ([]model.Entry, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + entryColumns + ` FROM time_entries e`)
	if f.ClientID != nil {
		b.WriteString(` JOIN projects p ON p.id = e.project_id AND p.account_id = e.account_id`)
	}
	b.WriteString(` WHERE e.account_id = ? AND e.start < ? AND (e.stop IS NULL OR e.stop > ?)`)
	args := []any{accountID, formatTime(rng.End), formatTime(rng.Start)}

	if f.ProjectID != nil {
		b.WriteString(` AND e.project_id = ?`)
		args = append(args, *f.ProjectID)
	}
	if f.ClientID != nil {
		b.WriteString(` AND p.client_id = ?`)
		args = append(args, *f.ClientID)
	}
	if f.Billable != nil {
		b.WriteString(` AND e.billable = ?`)
		args = append(args, boolInt(*f.Billable))
	}
	if f.Tag != nil {
		b.WriteString(` AND EXISTS (SELECT 1 FROM json_each(e.tags) t WHERE lower(t.value) = lower(?))`)
		args = append(args, *f.Tag)
	}
	if f.Range != nil {
		b.WriteString(` AND e.start >= ? AND e.start < ?`)
		args = append(args, formatTime(f.Range.Start), formatTime(f.Range.End))
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rows, err := r.db.conn.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, storeErr("query entries", err)
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storeErr("scan entry", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate entries", err)
	}
	return entries, nil
}

// GetEntry returns one cached entry or an error wrapping driven.ErrNotFound.
func (r *EntryRepo) GetEntry(ctx context.Context, accountID, entryID int64) (*model.Entry, error) {
	const query = `SELECT ` + entryColumns + ` FROM time_entries e WHERE e.account_id = ? AND e.id = ?`

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, err := scanEntry(r.db.conn.QueryRowContext(ctx, query, accountID, entryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %d: %w", entryID, driven.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get entry %d", entryID), err)
	}
	return e, nil
}

// RunningEntry returns the account's running entry, or nil.
func (r *EntryRepo) RunningEntry(ctx context.Context, accountID int64) (*model.Entry, error) {
	const query = `SELECT ` + entryColumns + ` FROM time_entries e WHERE e.account_id = ? AND e.duration IS NULL`

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, err := scanEntry(r.db.conn.QueryRowContext(ctx, query, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get running entry", err)
	}
	return e, nil
}

// UpdateEntryProject sets the project of exactly one cached entry.
func (r *EntryRepo) UpdateEntryProject(ctx context.Context, accountID, entryID int64, projectID *int64) error {
	const query = `UPDATE time_entries SET project_id = ?, updated_at = ? WHERE account_id = ? AND id = ?`
	return r.updateOne(ctx, "update entry project", entryID, query, projectID, formatTime(time.Now()), accountID, entryID)
}

// UpdateEntryDescription sets the description of exactly one cached entry.
func (r *EntryRepo) UpdateEntryDescription(ctx context.Context, accountID, entryID int64, text string) error {
	const query = `UPDATE time_entries SET description = ?, updated_at = ? WHERE account_id = ? AND id = ?`
	return r.updateOne(ctx, "update entry description", entryID, query, text, formatTime(time.Now()), accountID, entryID)
}

func (r *EntryRepo) updateOne(ctx context.Context, op string, entryID int64, query string, args ...any) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result, err := r.db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return storeErr(fmt.Sprintf("%s %d", op, entryID), err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return storeErr(fmt.Sprintf("%s %d", op, entryID), err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, entryID, driven.ErrNotFound)
	}
	return nil
}

func scanEntry(s scanner) (*model.Entry, error) {
	var e model.Entry
	var projectID, duration sql.NullInt64
	var start, updatedAt, tags string
	var stop sql.NullString
	var billable int

	if err := s.Scan(
		&e.ID, &e.AccountID, &e.WorkspaceID, &projectID, &e.Description,
		&start, &stop, &duration, &tags, &billable, &updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if e.Start, err = parseTime(start); err != nil {
		return nil, fmt.Errorf("parse start of entry %d: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at of entry %d: %w", e.ID, err)
	}
	if stop.Valid {
		t, err := parseTime(stop.String)
		if err != nil {
			return nil, fmt.Errorf("parse stop of entry %d: %w", e.ID, err)
		}
		e.Stop = &t
	}
	if projectID.Valid {
		e.ProjectID = &projectID.Int64
	}
	if duration.Valid {
		e.Duration = &duration.Int64
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags of entry %d: %w", e.ID, err)
	}
	e.Billable = billable != 0

	return &e, nil
}

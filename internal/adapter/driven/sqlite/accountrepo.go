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
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port interface.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// SetCurrent upserts acct and makes it the only current account.
func (r *AccountRepo) SetCurrent(ctx context.Context, acct model.Account) error {
	const clearQuery = `UPDATE accounts SET is_current = 0 WHERE is_current = 1`
	const upsertQuery = `
		INSERT INTO accounts (id, email, full_name, default_workspace_id, is_current, last_seen_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			email                = excluded.email,
			full_name            = excluded.full_name,
			default_workspace_id = excluded.default_workspace_id,
			is_current           = 1,
			last_seen_at         = excluded.last_seen_at
	`

	seen := acct.LastSeenAt
	if seen.IsZero() {
		seen = time.Now()
	}

	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, clearQuery); err != nil {
			return fmt.Errorf("clear current account: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsertQuery,
			acct.ID, acct.Email, acct.FullName, acct.DefaultWorkspaceID, formatTime(seen),
		); err != nil {
			return fmt.Errorf("upsert account %d: %w", acct.ID, err)
		}
		return nil
	})
	if err != nil {
		return storeErr("set current account", err)
	}
	return nil
}

// Current returns the current account or an error wrapping driven.ErrNoAccount.
func (r *AccountRepo) Current(ctx context.Context) (*model.Account, error) {
	const query = `
		SELECT id, email, full_name, default_workspace_id, last_seen_at
		FROM accounts
		WHERE is_current = 1
	`

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var acct model.Account
	var seen string
	err := r.db.conn.QueryRowContext(ctx, query).Scan(
		&acct.ID, &acct.Email, &acct.FullName, &acct.DefaultWorkspaceID, &seen,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrNoAccount
	}
	if err != nil {
		return nil, storeErr("get current account", err)
	}

	if acct.LastSeenAt, err = parseTime(seen); err != nil {
		return nil, storeErr("parse last_seen_at", err)
	}
	return &acct, nil
}

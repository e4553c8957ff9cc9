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
var _ driven.ProjectStore = (*ProjectRepo)(nil)

// ProjectRepo is the SQLite implementation of the ProjectStore port interface.
type ProjectRepo struct {
	db *DB
}

// NewProjectRepo creates a new ProjectRepo backed by the given DB.
func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// UpsertProjects replaces any rows sharing (id, account) in one transaction.
func (r *ProjectRepo) UpsertProjects(ctx context.Context, accountID int64, projects []model.Project) error {
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		return upsertProjectsTx(ctx, tx, accountID, projects, time.Now())
	})
	if err != nil {
		return storeErr("upsert projects", err)
	}
	return nil
}

func upsertProjectsTx(ctx context.Context, tx *sql.Tx, accountID int64, projects []model.Project, syncedAt time.Time) error {
	const query = `
		INSERT INTO projects (id, account_id, workspace_id, client_id, name, color, active, billable, updated_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, account_id) DO UPDATE SET
			workspace_id = excluded.workspace_id,
			client_id    = excluded.client_id,
			name         = excluded.name,
			color        = excluded.color,
			active       = excluded.active,
			billable     = excluded.billable,
			updated_at   = excluded.updated_at,
			synced_at    = excluded.synced_at
	`

	for _, p := range projects {
		updatedAt := p.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = syncedAt
		}
		if _, err := tx.ExecContext(ctx, query,
			p.ID, accountID, p.WorkspaceID, p.ClientID, p.Name, p.Color,
			boolInt(p.Active), boolInt(p.Billable), formatTime(updatedAt), formatTime(syncedAt),
		); err != nil {
			return fmt.Errorf("upsert project %d: %w", p.ID, err)
		}
	}
	return nil
}

// ListProjects returns the account's projects ordered by name.
func (r *ProjectRepo) ListProjects(ctx context.Context, accountID int64) ([]model.Project, error) {
	const query = `
		SELECT id, account_id, workspace_id, client_id, name, color, active, billable, updated_at
		FROM projects
		WHERE account_id = ?
		ORDER BY name COLLATE NOCASE, id
	`

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rows, err := r.db.conn.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, storeErr("list projects", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, storeErr("scan project", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate projects", err)
	}
	return projects, nil
}

// GetProject returns one project or an error wrapping driven.ErrNotFound.
func (r *ProjectRepo) GetProject(ctx context.Context, accountID, projectID int64) (*model.Project, error) {
	const query = `
		SELECT id, account_id, workspace_id, client_id, name, color, active, billable, updated_at
		FROM projects
		WHERE account_id = ? AND id = ?
	`

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, err := scanProject(r.db.conn.QueryRowContext(ctx, query, accountID, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get project %d: %w", projectID, driven.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get project %d", projectID), err)
	}
	return p, nil
}

func scanProject(s scanner) (*model.Project, error) {
	var p model.Project
	var clientID sql.NullInt64
	var active, billable int
	var updatedAt string

	if err := s.Scan(&p.ID, &p.AccountID, &p.WorkspaceID, &clientID, &p.Name, &p.Color, &active, &billable, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at of project %d: %w", p.ID, err)
	}
	if clientID.Valid {
		p.ClientID = &clientID.Int64
	}
	p.Active = active != 0
	p.Billable = billable != 0

	return &p, nil
}

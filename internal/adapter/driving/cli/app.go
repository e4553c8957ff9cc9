package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sqliteadapter "github.com/ericfisherdev/timeguru/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/timeguru/internal/adapter/driven/toggl"
	"github.com/ericfisherdev/timeguru/internal/application"
	"github.com/ericfisherdev/timeguru/internal/config"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

// app is the wired set of adapters and services one command runs against.
type app struct {
	cfg   config.Config
	db    *sqliteadapter.DB
	creds *sqliteadapter.CredentialRepo
	svc   *application.SyncService
	sched *application.Scheduler
}

// openApp opens the local cache, runs migrations and wires the sync
// coordinator. The remote client is only created when a token is known.
func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	key, err := cfg.SecretKeyBytes()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Debug("database opened", "path", cfg.DBPath)

	creds := sqliteadapter.NewCredentialRepo(db, key)

	token, err := resolveToken(ctx, cfg, creds)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var client driven.TimeTracker
	if token != "" {
		client = toggl.NewClient(token, cfg.APIBaseURL)
	} else {
		slog.Debug("no api token configured, remote operations disabled")
	}

	retry := application.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.MaxAttempts

	svc := application.NewSyncService(
		application.NewSession(client, nil),
		sqliteadapter.NewEntryRepo(db),
		sqliteadapter.NewProjectRepo(db),
		sqliteadapter.NewSyncRepo(db),
		sqliteadapter.NewAccountRepo(db),
		retry,
	)

	return &app{
		cfg:   cfg,
		db:    db,
		creds: creds,
		svc:   svc,
		sched: application.NewScheduler(cfg.Workers),
	}, nil
}

// resolveToken prefers the environment over the stored credential. A missing
// encryption key only matters when there is no environment token.
func resolveToken(ctx context.Context, cfg config.Config, creds driven.CredentialStore) (string, error) {
	if cfg.HasToken() {
		return cfg.APIToken, nil
	}
	token, err := creds.Get(ctx, driven.ServiceToggl)
	switch {
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("reading stored api token: %w", err)
	}
	return token, nil
}

// Close stops the scheduler and closes the database.
func (a *app) Close() {
	a.sched.Close()
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// call runs fn on the scheduler and waits for its result.
func call[T any](ctx context.Context, a *app, fn func(ctx context.Context) (T, error)) (T, error) {
	return application.Call(ctx, a.sched, fn)
}

// refreshAccount makes sure local reads are scoped to the account that owns
// the token. Failures other than a bad token fall back to the cached account.
func (a *app) refreshAccount(ctx context.Context) error {
	if !a.svc.Session().HasClient() {
		return nil
	}
	_, err := call(ctx, a, func(ctx context.Context) (bool, error) {
		_, switched, err := a.svc.ResolveAccount(ctx)
		return switched, err
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, driven.ErrAuth):
		return err
	default:
		slog.Warn("could not reach remote service, using cached account", "error", err)
		return nil
	}
}

// timeout bounds one-shot remote commands.
const timeout = 2 * time.Minute

// Package postgres stores roster snapshots in PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swimref/roster/internal/persistence"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Adapter implements persistence.Adapter on the roster_snapshots table.
type Adapter struct {
	pool   *pgxpool.Pool
	closed atomic.Bool
}

// Open creates a pool for dsn, verifies connectivity and applies the embedded
// migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Adapter, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("PostgreSQL connection pool established", "host", config.ConnConfig.Host, "database", config.ConnConfig.Database)
	}
	return &Adapter{pool: pool}, nil
}

// Migrate runs the embedded SQL migrations in file name order. Every
// migration is written to be re-runnable.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err = pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
	}
	return nil
}

// Load returns the blob stored under key.
func (a *Adapter) Load(ctx context.Context, key string) ([]byte, error) {
	if a.closed.Load() {
		return nil, persistence.ErrClosed
	}
	var blob []byte
	err := a.pool.QueryRow(ctx, `SELECT value FROM roster_snapshots WHERE key = $1`, key).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return blob, nil
}

// Save upserts blob under key.
func (a *Adapter) Save(ctx context.Context, key string, blob []byte) error {
	if a.closed.Load() {
		return persistence.ErrClosed
	}
	if blob == nil {
		blob = []byte{}
	}
	_, err := a.pool.Exec(ctx, `
		INSERT INTO roster_snapshots (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, blob,
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	if a.closed.Load() {
		return persistence.ErrClosed
	}
	if _, err := a.pool.Exec(ctx, `DELETE FROM roster_snapshots WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the pool.
func (a *Adapter) Close() error {
	if a.closed.CompareAndSwap(false, true) {
		a.pool.Close()
	}
	return nil
}

// Package sqlite stores roster snapshots in a SQLite database using the pure
// Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/swimref/roster/internal/persistence"
)

// Adapter implements persistence.Adapter on the roster_snapshots table.
type Adapter struct {
	db    *sql.DB
	retry RetryConfig

	mu     sync.RWMutex
	closed bool
}

// Open connects to the database described by cfg and applies pending
// migrations.
func Open(ctx context.Context, cfg Config) (*Adapter, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite database: %w", err)
	}
	return &Adapter{db: db, retry: cfg.Retry}, nil
}

func (a *Adapter) checkOpen() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return persistence.ErrClosed
	}
	return nil
}

// Load returns the blob stored under key.
func (a *Adapter) Load(ctx context.Context, key string) ([]byte, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	var blob []byte
	err := withRetry(ctx, a.retry, func() error {
		return a.db.QueryRowContext(ctx,
			`SELECT value FROM roster_snapshots WHERE key = ?`, key,
		).Scan(&blob)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return blob, nil
}

// Save upserts blob under key.
func (a *Adapter) Save(ctx context.Context, key string, blob []byte) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	if blob == nil {
		blob = []byte{}
	}
	updated := time.Now().UTC().Format(time.RFC3339Nano)
	err := withRetry(ctx, a.retry, func() error {
		_, err := a.db.ExecContext(ctx, `
			INSERT INTO roster_snapshots (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, blob, updated,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	err := withRetry(ctx, a.retry, func() error {
		_, err := a.db.ExecContext(ctx, `DELETE FROM roster_snapshots WHERE key = ?`, key)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle. Subsequent calls return ErrClosed.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.db.Close()
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds SQLite connection settings.
type Config struct {
	// DSN is the database file path or connection string.
	DSN string

	// BusyTimeout sets how long SQLite waits on a locked database.
	BusyTimeout time.Duration

	// JournalMode sets the journal mode (WAL, DELETE, MEMORY, ...).
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF).
	Synchronous string

	// Retry controls how locked or busy statements are retried.
	Retry RetryConfig
}

// DefaultConfig returns the production settings for a file database.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:         dsn,
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
		Synchronous: "NORMAL",
		Retry:       DefaultRetryConfig(),
	}
}

// MemoryConfig returns settings for a private in-memory database.
func MemoryConfig() Config {
	return Config{
		DSN:         ":memory:",
		BusyTimeout: time.Second,
		JournalMode: "MEMORY",
		Synchronous: "OFF",
		Retry:       RetryConfig{MaxRetries: 0, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1},
	}
}

// openDB opens a single-connection pool and applies the PRAGMA settings. One
// connection keeps the settings and an in-memory database consistent for
// every statement; the roster store serializes writes anyway.
func openDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlite: DSN is required")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []struct {
		name  string
		value string
	}{
		{"busy_timeout", fmt.Sprintf("%d", cfg.BusyTimeout.Milliseconds())},
		{"journal_mode", cfg.JournalMode},
		{"synchronous", cfg.Synchronous},
	}
	for _, pragma := range pragmas {
		if pragma.value == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set PRAGMA %s: %w", pragma.name, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return db, nil
}

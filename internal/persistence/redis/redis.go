// Package redis stores roster snapshots as Redis string values.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"

	"github.com/swimref/roster/internal/persistence"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "swimref:".
	Prefix string
}

// Adapter implements persistence.Adapter on Redis GET/SET/DEL.
type Adapter struct {
	client *goredis.Client
	prefix string
	owned  bool
	closed atomic.Bool
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, opts Options, logger *slog.Logger) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if logger != nil {
		logger.Info("Redis client connected", "addr", opts.Addr)
	}
	return rdb, nil
}

// Open connects to Redis and returns an adapter that owns the client.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Adapter, error) {
	client, err := NewClient(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: client, prefix: opts.Prefix, owned: true}, nil
}

// New wraps an existing client. Close leaves the client open.
func New(client *goredis.Client, prefix string) *Adapter {
	return &Adapter{client: client, prefix: prefix}
}

// Client exposes the underlying client so other components can share the
// connection.
func (a *Adapter) Client() *goredis.Client {
	return a.client
}

// Load returns the blob stored under key.
func (a *Adapter) Load(ctx context.Context, key string) ([]byte, error) {
	if a.closed.Load() {
		return nil, persistence.ErrClosed
	}
	blob, err := a.client.Get(ctx, a.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return blob, nil
}

// Save stores blob under key without expiry.
func (a *Adapter) Save(ctx context.Context, key string, blob []byte) error {
	if a.closed.Load() {
		return persistence.ErrClosed
	}
	if err := a.client.Set(ctx, a.prefix+key, blob, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	if a.closed.Load() {
		return persistence.ErrClosed
	}
	if err := a.client.Del(ctx, a.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close marks the adapter unusable and closes the client when the adapter
// opened it.
func (a *Adapter) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	if a.owned {
		return a.client.Close()
	}
	return nil
}

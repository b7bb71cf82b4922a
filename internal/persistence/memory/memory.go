// Package memory provides a process-local persistence adapter. It backs the
// "memory" storage mode and the test suites.
package memory

import (
	"context"
	"sync"

	"github.com/swimref/roster/internal/persistence"
)

// Adapter keeps blobs in a map guarded by a RWMutex. Blobs are copied on the
// way in and out so callers cannot alias stored state.
type Adapter struct {
	mu     sync.RWMutex
	blobs  map[string][]byte
	saves  map[string]int
	closed bool
}

// New returns an empty adapter.
func New() *Adapter {
	return &Adapter{
		blobs: make(map[string][]byte),
		saves: make(map[string]int),
	}
}

// Load returns a copy of the blob stored under key.
func (a *Adapter) Load(_ context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, persistence.ErrClosed
	}
	blob, ok := a.blobs[key]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return cloneBytes(blob), nil
}

// Save stores a copy of blob under key.
func (a *Adapter) Save(_ context.Context, key string, blob []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return persistence.ErrClosed
	}
	a.blobs[key] = cloneBytes(blob)
	a.saves[key]++
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (a *Adapter) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return persistence.ErrClosed
	}
	delete(a.blobs, key)
	return nil
}

// Close marks the adapter unusable.
func (a *Adapter) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return nil
}

// SaveCount reports how many times key has been saved.
func (a *Adapter) SaveCount(key string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.saves[key]
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

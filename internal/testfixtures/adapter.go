package testfixtures

import (
	"context"
	"errors"
	"sync"

	"github.com/swimref/roster/internal/persistence"
)

// ErrInjected is returned by FailingAdapter for keys marked as failing.
var ErrInjected = errors.New("testfixtures: injected persistence failure")

// FailingAdapter wraps an adapter and fails Save and Delete calls for chosen
// keys.
type FailingAdapter struct {
	persistence.Adapter

	mu      sync.Mutex
	failing map[string]bool
	all     bool
}

// NewFailingAdapter wraps inner.
func NewFailingAdapter(inner persistence.Adapter) *FailingAdapter {
	return &FailingAdapter{Adapter: inner, failing: make(map[string]bool)}
}

// FailWrites makes writes to keys fail. With no keys every write fails.
func (a *FailingAdapter) FailWrites(keys ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(keys) == 0 {
		a.all = true
		return
	}
	for _, k := range keys {
		a.failing[k] = true
	}
}

// Heal clears every injected failure.
func (a *FailingAdapter) Heal() {
	a.mu.Lock()
	a.failing = make(map[string]bool)
	a.all = false
	a.mu.Unlock()
}

func (a *FailingAdapter) fails(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.all || a.failing[key]
}

// Save delegates unless key is failing.
func (a *FailingAdapter) Save(ctx context.Context, key string, blob []byte) error {
	if a.fails(key) {
		return ErrInjected
	}
	return a.Adapter.Save(ctx, key, blob)
}

// Delete delegates unless key is failing.
func (a *FailingAdapter) Delete(ctx context.Context, key string) error {
	if a.fails(key) {
		return ErrInjected
	}
	return a.Adapter.Delete(ctx, key)
}

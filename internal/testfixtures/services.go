package testfixtures

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/logging"
	"github.com/swimref/roster/internal/persistence"
	"github.com/swimref/roster/internal/persistence/memory"
)

// SeedPassword is the password every seeded or fixture account accepts when
// built through the factory.
const SeedPassword = "swimref-test"

// FastArgon2idParams keeps hashing cheap in tests while still exercising the
// real argon2id encoding.
var FastArgon2idParams = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// HashPassword hashes password with FastArgon2idParams.
func HashPassword(password string) (string, error) {
	return application.CreatePasswordHash(password, FastArgon2idParams)
}

// MustHashPassword is HashPassword for fixture setup.
func MustHashPassword(tb testing.TB, password string) string {
	tb.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	return hash
}

// RecordingPublisher captures published deliveries.
type RecordingPublisher struct {
	mu         sync.Mutex
	deliveries []application.Delivery
}

// Publish implements application.NotificationPublisher.
func (p *RecordingPublisher) Publish(_ context.Context, deliveries []application.Delivery) {
	p.mu.Lock()
	p.deliveries = append(p.deliveries, deliveries...)
	p.mu.Unlock()
}

// Deliveries returns everything published so far.
func (p *RecordingPublisher) Deliveries() []application.Delivery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]application.Delivery(nil), p.deliveries...)
}

// Reset forgets recorded deliveries.
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	p.deliveries = nil
	p.mu.Unlock()
}

// StoreFactory assists tests with constructing roster stores using
// deterministic identifiers and clocks.
type StoreFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Adapter     persistence.Adapter
	Publisher   *RecordingPublisher
	Retention   *application.RetentionPolicy
	Logger      *slog.Logger
}

// StoreFactoryOption configures a StoreFactory instance.
type StoreFactoryOption func(*StoreFactory)

// NewStoreFactory constructs a StoreFactory backed by an in-memory adapter.
func NewStoreFactory(opts ...StoreFactoryOption) *StoreFactory {
	factory := &StoreFactory{
		Clock:       NewSteppingClock(time.Time{}, time.Second),
		IDGenerator: NewIDGenerator("id"),
		Adapter:     memory.New(),
		Publisher:   &RecordingPublisher{},
		Logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) StoreFactoryOption {
	return func(f *StoreFactory) { f.Clock = clock }
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) StoreFactoryOption {
	return func(f *StoreFactory) { f.IDGenerator = generator }
}

// WithAdapter overrides the persistence adapter.
func WithAdapter(adapter persistence.Adapter) StoreFactoryOption {
	return func(f *StoreFactory) { f.Adapter = adapter }
}

// WithRetention sets the notification retention policy.
func WithRetention(perRecipient int) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.Retention = &application.RetentionPolicy{PerRecipient: perRecipient}
	}
}

// Config returns the store configuration the factory would use.
func (f *StoreFactory) Config(tb testing.TB) application.StoreConfig {
	tb.Helper()
	return application.StoreConfig{
		Adapter:          f.Adapter,
		Publisher:        f.Publisher,
		IDGenerator:      f.IDGenerator.NextFunc(),
		Now:              f.Clock.NowFunc(),
		Retention:        f.Retention,
		SeedPasswordHash: MustHashPassword(tb, SeedPassword),
		HashPassword:     HashPassword,
		Logger:           f.Logger,
	}
}

// NewStore builds and loads a store. Snapshot collections that are set are
// written to the adapter first; the rest fall back to the seed dataset.
func (f *StoreFactory) NewStore(tb testing.TB, snap Snapshot) *application.Store {
	tb.Helper()
	ctx := context.Background()
	if err := WriteSnapshot(ctx, f.Adapter, snap); err != nil {
		tb.Fatalf("write snapshot: %v", err)
	}
	store, err := application.NewStore(f.Config(tb))
	if err != nil {
		tb.Fatalf("new store: %v", err)
	}
	if err := store.Load(ctx); err != nil {
		tb.Fatalf("load store: %v", err)
	}
	return store
}

// NewAuthService builds an auth service over store using the factory clock.
func (f *StoreFactory) NewAuthService(tb testing.TB, store *application.Store, ttl time.Duration) *application.AuthService {
	tb.Helper()
	svc, err := application.NewAuthService(application.AuthServiceConfig{
		Accounts: store,
		Secret:   []byte("test-secret"),
		TTL:      ttl,
		TokenID:  f.IDGenerator.NextFunc(),
		Now:      f.Clock.Current,
		Logger:   f.Logger,
	})
	if err != nil {
		tb.Fatalf("new auth service: %v", err)
	}
	return svc
}

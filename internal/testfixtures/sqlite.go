package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/persistence"
	"github.com/swimref/roster/internal/persistence/sqlite"
)

// NewSQLiteAdapter opens a migrated SQLite adapter backed by a temporary file.
// The adapter is closed when the test finishes.
func NewSQLiteAdapter(tb testing.TB) *sqlite.Adapter {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "roster.db")
	adapter, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open sqlite adapter: %v", err)
	}
	tb.Cleanup(func() { _ = adapter.Close() })
	return adapter
}

// RunAdapterContract exercises the behaviour every persistence.Adapter must
// provide. newAdapter is called once per subtest and must return an empty
// adapter.
func RunAdapterContract(t *testing.T, newAdapter func(t *testing.T) persistence.Adapter) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		adapter := newAdapter(t)
		_, err := adapter.Load(ctx, persistence.KeyUsers)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("save then load", func(t *testing.T) {
		adapter := newAdapter(t)
		require.NoError(t, adapter.Save(ctx, persistence.KeyUsers, []byte(`[{"id":"u1"}]`)))

		blob, err := adapter.Load(ctx, persistence.KeyUsers)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"u1"}]`, string(blob))
	})

	t.Run("save overwrites", func(t *testing.T) {
		adapter := newAdapter(t)
		require.NoError(t, adapter.Save(ctx, persistence.KeyCommittee, []byte(`{"v":1}`)))
		require.NoError(t, adapter.Save(ctx, persistence.KeyCommittee, []byte(`{"v":2}`)))

		blob, err := adapter.Load(ctx, persistence.KeyCommittee)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(blob))
	})

	t.Run("keys are independent", func(t *testing.T) {
		adapter := newAdapter(t)
		require.NoError(t, adapter.Save(ctx, persistence.KeyUsers, []byte(`"users"`)))
		require.NoError(t, adapter.Save(ctx, persistence.KeyCompetitions, []byte(`"competitions"`)))

		blob, err := adapter.Load(ctx, persistence.KeyUsers)
		require.NoError(t, err)
		assert.Equal(t, `"users"`, string(blob))
	})

	t.Run("delete", func(t *testing.T) {
		adapter := newAdapter(t)
		require.NoError(t, adapter.Save(ctx, persistence.KeyCurrentUser, []byte(`{"userId":"u1"}`)))
		require.NoError(t, adapter.Delete(ctx, persistence.KeyCurrentUser))

		_, err := adapter.Load(ctx, persistence.KeyCurrentUser)
		assert.ErrorIs(t, err, persistence.ErrNotFound)

		assert.NoError(t, adapter.Delete(ctx, persistence.KeyCurrentUser), "deleting a missing key")
	})

	t.Run("closed", func(t *testing.T) {
		adapter := newAdapter(t)
		require.NoError(t, adapter.Close())

		_, err := adapter.Load(ctx, persistence.KeyUsers)
		assert.ErrorIs(t, err, persistence.ErrClosed)
		assert.ErrorIs(t, adapter.Save(ctx, persistence.KeyUsers, []byte(`[]`)), persistence.ErrClosed)
		assert.ErrorIs(t, adapter.Delete(ctx, persistence.KeyUsers), persistence.ErrClosed)
	})
}

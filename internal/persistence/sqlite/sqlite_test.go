package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/persistence"
	"github.com/swimref/roster/internal/persistence/sqlite"
	"github.com/swimref/roster/internal/testfixtures"
)

func TestAdapterContract(t *testing.T) {
	testfixtures.RunAdapterContract(t, func(t *testing.T) persistence.Adapter {
		return testfixtures.NewSQLiteAdapter(t)
	})
}

func TestAdapterSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.db")

	first, err := sqlite.Open(ctx, sqlite.DefaultConfig(path))
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, persistence.KeyUsers, []byte(`[]`)))
	require.NoError(t, first.Close())

	second, err := sqlite.Open(ctx, sqlite.DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	blob, err := second.Load(ctx, persistence.KeyUsers)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(blob))
}

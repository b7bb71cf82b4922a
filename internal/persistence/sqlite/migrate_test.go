package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := openDB(ctx, MemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	applied, err := migrate(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"001"}, applied)

	applied, err = migrate(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)
}

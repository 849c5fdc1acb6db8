package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/blob"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "tally.db")
	s, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	_, err = s.Get(ctx, "expenses")
	assert.ErrorIs(t, err, blob.ErrNotExist)

	require.NoError(t, s.Put(ctx, "expenses", []byte(`[{"id":1}]`)))
	require.NoError(t, s.Put(ctx, "expenses", []byte(`[]`)))

	got, err := s.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestSQLiteStoreReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.db")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "expenses", []byte(`[1]`)))
	require.NoError(t, s.Close())

	// Migrations must be idempotent on an existing database.
	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(context.Background(), "expenses")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(got))
}

func TestMigrateSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.db")
	v, err := migrateSchema(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	v, err = migrateSchema(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
}

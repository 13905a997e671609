package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStore_SQLiteRepository(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) Repository {
		dsn := filepath.Join(t.TempDir(), "simulators.db")
		repo, err := OpenSQL(context.Background(), DialectSQLite, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}

func TestSQLStore_MigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenSQL(ctx, DialectSQLite, filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer repo.Close()

	assert.NoError(t, repo.Migrate(ctx))
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := NewSQLStore(nil, DialectPostgres)
	lite := NewSQLStore(nil, DialectSQLite)

	q := `SELECT id FROM simulators WHERE user_id = ? AND name = ? LIMIT ?`
	assert.Equal(t, `SELECT id FROM simulators WHERE user_id = $1 AND name = $2 LIMIT $3`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestOpenSQL_UnknownDialect(t *testing.T) {
	_, err := OpenSQL(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}

//go:build cgo

package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqlitePath(t *testing.T) {
	tests := []struct {
		url, path, query string
	}{
		{"sqlite://test.db", "test.db", ""},
		{"sqlite:test.db", "test.db", ""},
		{"sqlite:///tmp/app.db?_busy_timeout=5000", "/tmp/app.db", "_busy_timeout=5000"},
		{"sqlite::memory:", ":memory:", ""},
	}
	for _, tt := range tests {
		path, query := sqlitePath(tt.url)
		assert.Equal(t, tt.path, path, tt.url)
		assert.Equal(t, tt.query, query, tt.url)
	}
}

func TestSqliteLifecycle(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "app.db")
	url := "sqlite://" + file
	d := SQLite{}

	exists, err := d.Exists(ctx, url)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, d.Create(ctx, url, CreateOptions{WAL: true}))

	exists, err = d.Exists(ctx, url)
	require.NoError(t, err)
	assert.True(t, exists)

	db, err := d.Open(ctx, url)
	require.NoError(t, err)
	var mode string
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	require.NoError(t, db.Close())

	require.NoError(t, d.ForceDrop(ctx, url))
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(file + "-wal")
	assert.True(t, os.IsNotExist(err))
}

func TestSqliteCreateWithoutWAL(t *testing.T) {
	ctx := context.Background()
	url := "sqlite:" + filepath.Join(t.TempDir(), "plain.db")

	require.NoError(t, SQLite{}.Create(ctx, url, CreateOptions{}))

	db, err := SQLite{}.Open(ctx, url)
	require.NoError(t, err)
	defer db.Close()
	var mode string
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "delete", mode)
}

func TestSqliteMemory(t *testing.T) {
	ctx := context.Background()
	d := SQLite{}

	exists, err := d.Exists(ctx, "sqlite::memory:")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, d.Create(ctx, "sqlite::memory:", CreateOptions{}))
	assert.NoError(t, d.Drop(ctx, "sqlite::memory:"))
}

func TestDefaultRegistryHasSqlite(t *testing.T) {
	d, err := Default().Lookup("sqlite://test.db")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", d.Dialect())

}

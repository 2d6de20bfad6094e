//go:build cgo

package migrate

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcomnes/sqlctl"
	"github.com/bcomnes/sqlctl/driver"
)

type fixture struct {
	source string
	opts   sqlctl.ConnectOpts
	out    *bytes.Buffer
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "migrations")
	url := "sqlite://" + filepath.Join(dir, "app.db")
	require.NoError(t, driver.Default().Create(context.Background(), url, driver.CreateOptions{}))

	writeDir(t, source, map[string]string{
		"001.do.create-users.sql":   "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);",
		"001.undo.create-users.sql": "DROP TABLE users;",
		"002.do.add-posts.sql":      "CREATE TABLE posts (id INTEGER PRIMARY KEY);",
		"002.undo.add-posts.sql":    "DROP TABLE posts;",
		"003.do.seed.sql":           "INSERT INTO users (name) VALUES ('a');\nINSERT INTO users (name) VALUES ('b');",
	})

	out := &bytes.Buffer{}
	return &fixture{
		source: source,
		opts:   sqlctl.ConnectOpts{DatabaseURL: url, ConnectTimeout: time.Second},
		out:    out,
		engine: &Engine{Out: out},
	}
}

func writeDir(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		writeMigration(t, dir, name, content)
	}
}

func (f *fixture) applied(t *testing.T) []int64 {
	t.Helper()
	db, err := driver.Default().Open(context.Background(), f.opts.DatabaseURL)
	require.NoError(t, err)
	defer db.Close()
	m, err := NewMigrator(Config{Dialect: "sqlite3", Source: f.source}, db)
	require.NoError(t, err)
	applied, err := m.Applied(context.Background())
	require.NoError(t, err)
	var versions []int64
	for _, a := range applied {
		versions = append(versions, a.Version)
	}
	return versions
}

func (f *fixture) db(t *testing.T) *sql.DB {
	t.Helper()
	db, err := driver.Default().Open(context.Background(), f.opts.DatabaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunAppliesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, nil))
	assert.Equal(t, []int64{1, 2, 3}, f.applied(t))
	assert.Contains(t, f.out.String(), "1/migrate create users")
	assert.Contains(t, f.out.String(), "3/migrate seed")

	var n int
	require.NoError(t, f.db(t).QueryRow("SELECT count(*) FROM users").Scan(&n))
	assert.Equal(t, 2, n)

	f.out.Reset()
	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, nil))
	assert.Empty(t, f.out.String())
}

func TestRunDryRunLeavesDatabaseAlone(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.Run(context.Background(), f.source, f.opts, true, false, nil))
	assert.Contains(t, f.out.String(), "Can apply")
	assert.Empty(t, f.applied(t))
}

func TestRunTargetVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	target := int64(2)
	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, &target))
	assert.Equal(t, []int64{1, 2}, f.applied(t))

	below := int64(1)
	err := f.engine.Run(ctx, f.source, f.opts, false, false, &below)
	assert.ErrorIs(t, err, ErrTargetBelowApplied)

	unknown := int64(9)
	err = f.engine.Run(ctx, f.source, f.opts, false, false, &unknown)
	assert.ErrorIs(t, err, ErrVersionNotPresent)
}

func TestRunDetectsChangedChecksum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, nil))

	writeMigration(t, f.source, "002.do.add-posts.sql", "CREATE TABLE posts (id INTEGER PRIMARY KEY, body TEXT);")
	err := f.engine.Run(ctx, f.source, f.opts, false, false, nil)

	var cerr *ChecksumError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, int64(2), cerr.Version)
}

func TestRunNewlineIgnoresLineEndingChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.engine.Newline = "LF"
	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, nil))

	writeMigration(t, f.source, "003.do.seed.sql", "INSERT INTO users (name) VALUES ('a');\r\nINSERT INTO users (name) VALUES ('b');")
	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, nil))

	f.engine.Newline = ""
	var cerr *ChecksumError
	require.ErrorAs(t, f.engine.Run(ctx, f.source, f.opts, false, false, nil), &cerr)
	assert.Equal(t, int64(3), cerr.Version)
}

func TestRunRejectsUnknownNewline(t *testing.T) {
	f := newFixture(t)
	f.engine.Newline = "LFCR"

	require.Error(t, f.engine.Run(context.Background(), f.source, f.opts, false, false, nil))
	assert.Empty(t, f.applied(t))
}

func TestRunMissingAppliedMigration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, nil))

	require.NoError(t, os.Remove(filepath.Join(f.source, "003.do.seed.sql")))
	err := f.engine.Run(ctx, f.source, f.opts, false, false, nil)
	assert.ErrorIs(t, err, ErrVersionMissing)

	assert.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, true, nil))
}

func TestRevert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := int64(2)
	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, &target))

	f.out.Reset()
	require.NoError(t, f.engine.Revert(ctx, f.source, f.opts, false, false, nil))
	assert.Equal(t, []int64{1}, f.applied(t))
	assert.Contains(t, f.out.String(), "2/revert add posts")

	zero := int64(0)
	require.NoError(t, f.engine.Revert(ctx, f.source, f.opts, false, false, &zero))
	assert.Empty(t, f.applied(t))

	f.out.Reset()
	require.NoError(t, f.engine.Revert(ctx, f.source, f.opts, false, false, nil))
	assert.Contains(t, f.out.String(), "No migrations available to revert")
}

func TestRevertWithoutUndo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, nil))

	err := f.engine.Revert(ctx, f.source, f.opts, false, false, nil)
	assert.ErrorIs(t, err, ErrNotReversible)
	assert.Equal(t, []int64{1, 2, 3}, f.applied(t))
}

func TestRevertTargetAboveApplied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := int64(1)
	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, &target))

	above := int64(2)
	err := f.engine.Revert(ctx, f.source, f.opts, false, false, &above)
	assert.ErrorIs(t, err, ErrTargetAboveApplied)
}

func TestInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := int64(1)
	require.NoError(t, f.engine.Run(ctx, f.source, f.opts, false, false, &target))

	f.out.Reset()
	require.NoError(t, f.engine.Info(ctx, f.source, f.opts))
	out := f.out.String()
	assert.Contains(t, out, "1/")
	assert.Contains(t, out, "installed")
	assert.Contains(t, out, "2/")
	assert.Contains(t, out, "pending")
}

func TestEnsureTableCustomName(t *testing.T) {
	f := newFixture(t)
	f.engine.SchemaTable = "_migrations"
	require.NoError(t, f.engine.Run(context.Background(), f.source, f.opts, false, false, nil))

	var n int
	require.NoError(t, f.db(t).QueryRow("SELECT count(*) FROM _migrations").Scan(&n))
	assert.Equal(t, 3, n)
}

//go:build cgo

package driver

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" database/sql driver
)

func init() {
	builtin = append(builtin, func() Driver { return SQLite{} })
}

const sqliteMemory = ":memory:"

// SQLite manages SQLite database files. In-memory databases always exist and
// cannot be created or dropped.
type SQLite struct{}

func (SQLite) Name() string      { return "SQLite" }
func (SQLite) Schemes() []string { return []string{"sqlite"} }
func (SQLite) Dialect() string   { return "sqlite3" }

// sqlitePath splits a sqlite URL into the file path and its query string.
// Accepted forms: sqlite://path, sqlite:path, sqlite::memory:.
func sqlitePath(url string) (path, query string) {
	rest := strings.TrimPrefix(url, "sqlite:")
	rest = strings.TrimPrefix(rest, "//")
	path, query, _ = strings.Cut(rest, "?")
	return path, query
}

// sqliteDSN builds a go-sqlite3 file: DSN from a path and extra parameters.
func sqliteDSN(path, query string, extra ...string) string {
	params := make([]string, 0, len(extra)+1)
	if query != "" {
		params = append(params, query)
	}
	params = append(params, extra...)
	if len(params) == 0 {
		return "file:" + path
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

func (SQLite) Exists(_ context.Context, url string) (bool, error) {
	path, _ := sqlitePath(url)
	if path == sqliteMemory {
		return true, nil
	}
	if path == "" {
		return false, ErrMissingDatabaseName
	}
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (SQLite) Create(ctx context.Context, url string, opts CreateOptions) error {
	path, query := sqlitePath(url)
	if path == sqliteMemory {
		return nil
	}
	if path == "" {
		return ErrMissingDatabaseName
	}

	extra := []string{"mode=rwc"}
	if opts.WAL {
		extra = append(extra, "_journal_mode=WAL")
	}
	db, err := sql.Open("sqlite3", sqliteDSN(path, query, extra...))
	if err != nil {
		return err
	}
	defer db.Close()

	// The file is created on first use.
	_, err = db.ExecContext(ctx, "PRAGMA user_version")
	return err
}

func (SQLite) Drop(_ context.Context, url string) error {
	path, _ := sqlitePath(url)
	if path == sqliteMemory {
		return nil
	}
	if path == "" {
		return ErrMissingDatabaseName
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ForceDrop is Drop: SQLite has no server sessions to terminate.
func (s SQLite) ForceDrop(ctx context.Context, url string) error {
	return s.Drop(ctx, url)
}

func (SQLite) Open(_ context.Context, url string) (*sql.DB, error) {
	path, query := sqlitePath(url)
	if path == "" {
		return nil, ErrMissingDatabaseName
	}
	return sql.Open("sqlite3", sqliteDSN(path, query))
}

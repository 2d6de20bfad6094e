package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// forceDropMinVersion is the first server major version supporting
// DROP DATABASE ... WITH (FORCE).
const forceDropMinVersion = 13

// Postgres manages PostgreSQL databases. Administrative statements run over
// a maintenance connection to the "postgres" database.
type Postgres struct{}

func (Postgres) Name() string      { return "PostgreSQL" }
func (Postgres) Schemes() []string { return []string{"postgres", "postgresql"} }
func (Postgres) Dialect() string   { return "pg" }

// maintenance parses url and connects to the server's maintenance database.
// It returns the connection and the name of the target database.
func (Postgres) maintenance(ctx context.Context, url string) (*pgx.Conn, string, error) {
	cfg, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, "", err
	}
	name := cfg.Database
	if name == "" {
		return nil, "", ErrMissingDatabaseName
	}

	admin := cfg.Copy()
	admin.Database = "postgres"
	if name == "postgres" {
		admin.Database = "template1"
	}
	conn, err := pgx.ConnectConfig(ctx, admin)
	if err != nil {
		return nil, "", err
	}
	return conn, name, nil
}

func (p Postgres) Exists(ctx context.Context, url string) (bool, error) {
	conn, name, err := p.maintenance(ctx, url)
	if err != nil {
		return false, err
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	return exists, err
}

func (p Postgres) Create(ctx context.Context, url string, _ CreateOptions) error {
	conn, name, err := p.maintenance(ctx, url)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize())
	return err
}

func (p Postgres) Drop(ctx context.Context, url string) error {
	conn, name, err := p.maintenance(ctx, url)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize())
	return err
}

func (p Postgres) ForceDrop(ctx context.Context, url string) error {
	conn, name, err := p.maintenance(ctx, url)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	ident := pgx.Identifier{name}.Sanitize()
	major, err := serverMajorVersion(conn.PgConn().ParameterStatus("server_version"))
	if err != nil {
		return err
	}
	if major >= forceDropMinVersion {
		_, err = conn.Exec(ctx, "DROP DATABASE IF EXISTS "+ident+" WITH (FORCE)")
		return err
	}

	// Older servers: terminate other sessions first.
	_, err = conn.Exec(ctx, `
      SELECT pg_terminate_backend(pid)
      FROM pg_stat_activity
      WHERE datname = $1 AND pid <> pg_backend_pid();`, name)
	if err != nil {
		return fmt.Errorf("terminating connections to %s: %w", name, err)
	}
	_, err = conn.Exec(ctx, "DROP DATABASE IF EXISTS "+ident)
	return err
}

func (Postgres) Open(_ context.Context, url string) (*sql.DB, error) {
	return sql.Open("pgx", url)
}

// serverMajorVersion parses the major version out of a server_version
// parameter such as "16.2 (Debian 16.2-1.pgdg120+2)" or "9.6.24".
func serverMajorVersion(v string) (int, error) {
	v = strings.TrimSpace(v)
	end := strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(v)
	}
	major, err := strconv.Atoi(v[:end])
	if err != nil {
		return 0, fmt.Errorf("unrecognized server version %q", v)
	}
	return major, nil
}

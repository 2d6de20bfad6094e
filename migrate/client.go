package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AppliedMigration is a row of the schema table.
type AppliedMigration struct {
	Version int64
	Name    string
	Md5     string
	RunAt   time.Time
}

// Client runs the dialect-specific statements against the schema table.
type Client interface {
	HasVersionTable(ctx context.Context) (bool, error)
	EnsureTable(ctx context.Context) error
	Applied(ctx context.Context) ([]AppliedMigration, error)

	// Apply runs script and records or forgets m in one transaction.
	Apply(ctx context.Context, m Migration, script string) error
}

// NewClient creates a new Client based on the provided configuration and database connection.
func NewClient(cfg Config, db *sql.DB) (Client, error) {
	switch strings.ToLower(cfg.Dialect) {
	case "pg":
		return NewPostgresClient(cfg, db), nil
	case "sqlite3":
		return NewSqlite3Client(cfg, db), nil
	case "mysql":
		return NewMySQLClient(cfg, db), nil
	default:
		return nil, fmt.Errorf("db dialect '%s' not supported. Must be one of: pg, sqlite3 or mysql", cfg.Dialect)
	}
}

// baseClient provides the common implementation. Concrete clients set the
// function fields to supply their SQL.
type baseClient struct {
	cfg Config
	db  *sql.DB

	columnsSqlFn      func() (string, []any)
	quotedTableFn     func() string
	placeholderFn     func(n int) string
	versionTypeName   string
	timestampTypeName string
}

func (c *baseClient) quotedSchemaTable() string {
	if c.quotedTableFn != nil {
		return c.quotedTableFn()
	}
	return c.cfg.SchemaTable
}

func (c *baseClient) placeholder(n int) string {
	if c.placeholderFn != nil {
		return c.placeholderFn(n)
	}
	return "?"
}

// columns returns the column names of the schema table; none means the
// table does not exist.
func (c *baseClient) columns(ctx context.Context) ([]string, error) {
	query, args := c.columnsSqlFn()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// HasVersionTable checks for the existence of the version table by querying its columns.
func (c *baseClient) HasVersionTable(ctx context.Context) (bool, error) {
	columns, err := c.columns(ctx)
	if err != nil {
		return false, err
	}
	return len(columns) > 0, nil
}

// Helper function to check for a column name (case insensitive).
func hasColumn(columns []string, name string) bool {
	for _, col := range columns {
		if strings.EqualFold(col, name) {
			return true
		}
	}
	return false
}

// EnsureTable creates the version table, or adds columns missing from a
// table created by an older release.
func (c *baseClient) EnsureTable(ctx context.Context) error {
	columns, err := c.columns(ctx)
	if err != nil {
		return err
	}

	qt := c.quotedSchemaTable()
	var queries []string
	if len(columns) == 0 {
		if c.cfg.Dialect == "pg" && strings.Contains(c.cfg.SchemaTable, ".") {
			schema, _, _ := strings.Cut(c.cfg.SchemaTable, ".")
			queries = append(queries, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s";`, schema))
		}
		queries = append(queries, fmt.Sprintf(`
          CREATE TABLE %s (
            version %s PRIMARY KEY
          );`, qt, c.versionTypeName))
	}
	if !hasColumn(columns, "name") {
		queries = append(queries, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN name TEXT;`, qt))
	}
	if !hasColumn(columns, "md5") {
		queries = append(queries, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN md5 TEXT;`, qt))
	}
	if !hasColumn(columns, "run_at") {
		queries = append(queries, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN run_at %s;`, qt, c.timestampTypeName))
	}

	for _, q := range queries {
		if _, err := c.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Applied returns the recorded migrations in ascending version order. A
// missing table means nothing has been applied.
func (c *baseClient) Applied(ctx context.Context) ([]AppliedMigration, error) {
	ok, err := c.HasVersionTable(ctx)
	if err != nil || !ok {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
      SELECT version, name, md5, run_at
      FROM %s
      WHERE version > 0
      ORDER BY version ASC;`, c.quotedSchemaTable()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			a     AppliedMigration
			name  sql.NullString
			md5   sql.NullString
			runAt sql.NullTime
		)
		if err := rows.Scan(&a.Version, &name, &md5, &runAt); err != nil {
			return nil, err
		}
		a.Name, a.Md5, a.RunAt = name.String, md5.String, runAt.Time
		applied = append(applied, a)
	}
	return applied, rows.Err()
}

// Apply runs the migration script and updates the version table in a
// single transaction.
func (c *baseClient) Apply(ctx context.Context, m Migration, script string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Action, err)
	}

	qt := c.quotedSchemaTable()
	switch m.Action {
	case ActionDo:
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
          INSERT INTO %s (version, name, md5, run_at)
          VALUES (%s, %s, %s, %s);`, qt,
			c.placeholder(1), c.placeholder(2), c.placeholder(3), c.placeholder(4)),
			m.Version, m.Name, m.Md5, time.Now().UTC())
	case ActionUndo:
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
          DELETE FROM %s
          WHERE version = %s;`, qt, c.placeholder(1)), m.Version)
	default:
		err = fmt.Errorf("unknown migration action %q", m.Action)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

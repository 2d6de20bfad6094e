package migrate

import (
	"database/sql"
	"fmt"
	"strings"
)

// PostgresClient implements Client for PostgreSQL.
type PostgresClient struct {
	baseClient
}

// NewPostgresClient creates a new PostgresClient.
func NewPostgresClient(cfg Config, db *sql.DB) *PostgresClient {
	c := &PostgresClient{
		baseClient: baseClient{
			cfg:               cfg,
			db:                db,
			versionTypeName:   "BIGINT",
			timestampTypeName: "TIMESTAMPTZ",
		},
	}
	c.columnsSqlFn = c.getColumnsSql
	c.quotedTableFn = c.QuotedSchemaTable
	c.placeholderFn = func(n int) string { return fmt.Sprintf("$%d", n) }
	return c
}

// QuotedSchemaTable returns the schema table name with each part quoted.
func (c *PostgresClient) QuotedSchemaTable() string {
	parts := strings.Split(c.cfg.SchemaTable, ".")
	for i, part := range parts {
		parts[i] = fmt.Sprintf(`"%s"`, part)
	}
	return strings.Join(parts, ".")
}

// getColumnsSql lists the columns of the version table. Without a schema
// prefix the table is looked up in the current schema.
func (c *PostgresClient) getColumnsSql() (string, []any) {
	if schema, table, ok := strings.Cut(c.cfg.SchemaTable, "."); ok {
		return `SELECT column_name FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2;`,
			[]any{schema, table}
	}
	return `SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1;`,
		[]any{c.cfg.SchemaTable}
}

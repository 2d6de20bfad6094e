package migrate

import (
	"database/sql"
)

// Sqlite3Client implements the Client interface for SQLite.
type Sqlite3Client struct {
	baseClient
}

// NewSqlite3Client creates a new Sqlite3Client.
func NewSqlite3Client(cfg Config, db *sql.DB) *Sqlite3Client {
	c := &Sqlite3Client{
		baseClient: baseClient{
			cfg:               cfg,
			db:                db,
			versionTypeName:   "INTEGER",
			timestampTypeName: "TIMESTAMP",
		},
	}
	c.columnsSqlFn = c.getColumnsSql
	return c
}

func (c *Sqlite3Client) getColumnsSql() (string, []any) {
	return `SELECT name AS column_name FROM pragma_table_info(?);`, []any{c.cfg.SchemaTable}
}

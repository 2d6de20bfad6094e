package migrate

import (
	"database/sql"
	"strings"
)

// MySQLClient implements Client for MySQL and MariaDB.
type MySQLClient struct {
	baseClient
}

// NewMySQLClient creates a new MySQLClient.
func NewMySQLClient(cfg Config, db *sql.DB) *MySQLClient {
	c := &MySQLClient{
		baseClient: baseClient{
			cfg:               cfg,
			db:                db,
			versionTypeName:   "BIGINT",
			timestampTypeName: "DATETIME(6)",
		},
	}
	c.columnsSqlFn = c.getColumnsSql
	c.quotedTableFn = c.quoteTable
	return c
}

func (c *MySQLClient) quoteTable() string {
	return "`" + strings.ReplaceAll(c.cfg.SchemaTable, "`", "``") + "`"
}

func (c *MySQLClient) getColumnsSql() (string, []any) {
	return `SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ?;`,
		[]any{c.cfg.SchemaTable}
}

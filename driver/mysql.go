package driver

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL manages MySQL and MariaDB databases.
type MySQL struct{}

func (MySQL) Name() string      { return "MySQL" }
func (MySQL) Schemes() []string { return []string{"mysql", "mariadb"} }
func (MySQL) Dialect() string   { return "mysql" }

// mysqlConfig converts a mysql:// URL into a driver config.
func mysqlConfig(url string) (*mysql.Config, error) {
	u, err := neturl.Parse(url)
	if err != nil {
		return nil, err
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		host := u.Hostname()
		if host == "" {
			host = "localhost"
		}
		cfg.Addr = net.JoinHostPort(host, "3306")
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")

	q := u.Query()
	if len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k := range q {
			cfg.Params[k] = q.Get(k)
		}
	}
	return cfg, nil
}

// server opens a connection without selecting a database and returns the
// target database name.
func (MySQL) server(url string) (*sql.DB, string, error) {
	cfg, err := mysqlConfig(url)
	if err != nil {
		return nil, "", err
	}
	name := cfg.DBName
	if name == "" {
		return nil, "", ErrMissingDatabaseName
	}
	cfg.DBName = ""
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, "", err
	}
	return db, name, nil
}

func quoteMySQLIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (m MySQL) Exists(ctx context.Context, url string) (bool, error) {
	db, name, err := m.server(url)
	if err != nil {
		return false, err
	}
	defer db.Close()

	var exists bool
	err = db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)`, name).Scan(&exists)
	return exists, err
}

func (m MySQL) Create(ctx context.Context, url string, _ CreateOptions) error {
	db, name, err := m.server(url)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE DATABASE "+quoteMySQLIdent(name))
	return err
}

func (m MySQL) Drop(ctx context.Context, url string) error {
	db, name, err := m.server(url)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "DROP DATABASE IF EXISTS "+quoteMySQLIdent(name))
	return err
}

func (MySQL) ForceDrop(context.Context, string) error {
	return fmt.Errorf("mysql: %w", ErrForceDropUnsupported)
}

func (MySQL) Open(_ context.Context, url string) (*sql.DB, error) {
	cfg, err := mysqlConfig(url)
	if err != nil {
		return nil, err
	}
	// Migration scripts contain several statements.
	cfg.MultiStatements = true
	cfg.ParseTime = true
	return sql.Open("mysql", cfg.FormatDSN())
}

// SPDX-License-Identifier: MIT

// Package driver creates, drops and checks for databases for each supported
// server, and opens database/sql handles for the migration engine.
//
// A Driver is picked by the scheme of the connection URL:
//
//	postgres://, postgresql://   PostgreSQL through pgx
//	sqlite://, sqlite:           SQLite through go-sqlite3 (cgo builds only)
//	mysql://, mariadb://         MySQL through go-sql-driver/mysql
//
// InstallDefaultDrivers fills the default registry once per process; calling
// it again is a no-op.
package driver

package migrate

import (
	"context"
	"database/sql"
	"time"
)

// Config holds settings for migrations.
type Config struct {
	// Dialect selects the SQL flavour: "pg", "sqlite3" or "mysql".
	Dialect string

	// SchemaTable is the name of the migration table.
	SchemaTable string

	// Source is the directory holding the migration files.
	Source string

	// Newline normalizes line endings ("LF", "CR" or "CRLF") before
	// checksumming. Empty hashes files as they are.
	Newline string
}

// DefaultSchemaTable stores the applied migrations.
const DefaultSchemaTable = "schemaversion"

// Migrator applies and reverts the migrations of one source directory
// against one database.
type Migrator struct {
	cfg        Config
	migrations []Migration
	client     Client
}

// NewMigrator creates a Migrator and loads the migrations in cfg.Source.
func NewMigrator(cfg Config, db *sql.DB) (*Migrator, error) {
	if cfg.SchemaTable == "" {
		cfg.SchemaTable = DefaultSchemaTable
	}
	client, err := NewClient(cfg, db)
	if err != nil {
		return nil, err
	}
	migs, err := loadMigrations(cfg.Source, cfg.Newline)
	if err != nil {
		return nil, err
	}
	return &Migrator{
		cfg:        cfg,
		migrations: migs,
		client:     client,
	}, nil
}

// Migrations returns the loaded migrations in ascending version order.
func (g *Migrator) Migrations() []Migration {
	return g.migrations
}

// find returns the migration with the given version and action.
func (g *Migrator) find(version int64, action string) (Migration, bool) {
	for _, m := range g.migrations {
		if m.Version == version && m.Action == action {
			return m, true
		}
	}
	return Migration{}, false
}

// versionExists reports whether a do migration with version is loaded.
func (g *Migrator) versionExists(version int64) bool {
	_, ok := g.find(version, ActionDo)
	return ok
}

// Applied returns the migrations recorded in the database.
func (g *Migrator) Applied(ctx context.Context) ([]AppliedMigration, error) {
	return g.client.Applied(ctx)
}

// EnsureTable creates the schema table if needed.
func (g *Migrator) EnsureTable(ctx context.Context) error {
	return g.client.EnsureTable(ctx)
}

// Validate checks the applied migrations against the loaded files: every
// applied version must still exist unless ignoreMissing is set, and every
// applied checksum must match.
func (g *Migrator) Validate(applied []AppliedMigration, ignoreMissing bool) error {
	for _, a := range applied {
		m, ok := g.find(a.Version, ActionDo)
		if !ok {
			if ignoreMissing {
				continue
			}
			return versionError(ErrVersionMissing, a.Version)
		}
		if a.Md5 != "" && m.Md5 != a.Md5 {
			return &ChecksumError{Version: a.Version, Applied: a.Md5, Resolved: m.Md5}
		}
	}
	return nil
}

// Pending returns the do migrations not yet applied, up to target when set,
// in ascending order.
func (g *Migrator) Pending(applied []AppliedMigration, target *int64) []Migration {
	done := make(map[int64]struct{}, len(applied))
	for _, a := range applied {
		done[a.Version] = struct{}{}
	}
	var runnable []Migration
	for _, m := range g.migrations {
		if m.Action != ActionDo {
			continue
		}
		if _, ok := done[m.Version]; ok {
			continue
		}
		if target != nil && m.Version > *target {
			continue
		}
		runnable = append(runnable, m)
	}
	sortMigrationsAsc(runnable)
	return runnable
}

// Apply runs one migration file and records the result, returning how
// long it took.
func (g *Migrator) Apply(ctx context.Context, m Migration) (time.Duration, error) {
	script, err := m.SQL()
	if err != nil {
		return 0, err
	}
	start := time.Now()
	if err := g.client.Apply(ctx, m, script); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

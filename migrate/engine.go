package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/juju/ansiterm"

	"github.com/bcomnes/sqlctl"
	"github.com/bcomnes/sqlctl/connect"
	"github.com/bcomnes/sqlctl/driver"
	"github.com/bcomnes/sqlctl/logging"
)

// Engine runs migrations against the database named by a set of connect
// options.
type Engine struct {
	// Drivers opens connections; nil means driver.Default().
	Drivers *driver.Registry

	// SchemaTable overrides DefaultSchemaTable.
	SchemaTable string

	// Newline normalizes line endings before checksumming; see Config.
	Newline string

	// Out receives progress lines; nil means os.Stdout.
	Out io.Writer
}

func (e *Engine) drivers() *driver.Registry {
	if e.Drivers != nil {
		return e.Drivers
	}
	return driver.Default()
}

func (e *Engine) writer() *ansiterm.Writer {
	out := e.Out
	if out == nil {
		out = os.Stdout
	}
	return ansiterm.NewWriter(out)
}

var (
	appliedColor = ansiterm.Foreground(ansiterm.Green)
	pendingColor = ansiterm.Foreground(ansiterm.Yellow)
	problemColor = ansiterm.Foreground(ansiterm.Red)
)

// open connects with retry and loads the migrations of source.
func (e *Engine) open(ctx context.Context, source string, opts sqlctl.ConnectOpts) (*sql.DB, *Migrator, error) {
	url, err := opts.RequiredDatabaseURL()
	if err != nil {
		return nil, nil, err
	}
	d, err := e.drivers().Lookup(url)
	if err != nil {
		return nil, nil, err
	}
	db, err := connect.Open(ctx, e.drivers(), opts)
	if err != nil {
		return nil, nil, err
	}
	m, err := NewMigrator(Config{
		Dialect:     d.Dialect(),
		SchemaTable: e.SchemaTable,
		Source:      source,
		Newline:     e.Newline,
	}, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, m, nil
}

// Run applies the pending migrations in source, up to target when set. A
// dry run reports what would be applied without touching the database.
func (e *Engine) Run(ctx context.Context, source string, opts sqlctl.ConnectOpts, dryRun, ignoreMissing bool, target *int64) error {
	db, m, err := e.open(ctx, source, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	if target != nil && !m.versionExists(*target) {
		return versionError(ErrVersionNotPresent, *target)
	}
	if !dryRun {
		if err := m.EnsureTable(ctx); err != nil {
			return err
		}
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if err := m.Validate(applied, ignoreMissing); err != nil {
		return err
	}
	if target != nil && len(applied) > 0 && *target < applied[len(applied)-1].Version {
		return versionError(ErrTargetBelowApplied, *target)
	}

	log := logging.FromContext(ctx)
	w := e.writer()
	for _, mig := range m.Pending(applied, target) {
		if dryRun {
			pendingColor.Fprint(w, "Can apply")
			fmt.Fprintf(w, " %d/migrate %s\n", mig.Version, mig.Description())
			continue
		}
		log.Debug("applying migration", "version", mig.Version, "file", mig.Filename)
		elapsed, err := m.Apply(ctx, mig)
		if err != nil {
			return err
		}
		appliedColor.Fprint(w, "Applied")
		fmt.Fprintf(w, " %d/migrate %s (%s)\n", mig.Version, mig.Description(), elapsed)
	}
	return nil
}

// Revert rolls back the latest applied migration, or every migration newer
// than target when it is set. Target 0 reverts everything.
func (e *Engine) Revert(ctx context.Context, source string, opts sqlctl.ConnectOpts, dryRun, ignoreMissing bool, target *int64) error {
	db, m, err := e.open(ctx, source, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	if target != nil && *target != 0 && !m.versionExists(*target) {
		return versionError(ErrVersionNotPresent, *target)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if err := m.Validate(applied, ignoreMissing); err != nil {
		return err
	}

	w := e.writer()
	if len(applied) == 0 {
		fmt.Fprintln(w, "No migrations available to revert")
		return nil
	}
	if target != nil && *target > applied[len(applied)-1].Version {
		return versionError(ErrTargetAboveApplied, *target)
	}

	var plan []Migration
	for i := len(applied) - 1; i >= 0; i-- {
		a := applied[i]
		if target != nil && a.Version <= *target {
			break
		}
		undo, ok := m.find(a.Version, ActionUndo)
		if !ok {
			if _, known := m.find(a.Version, ActionDo); !known && ignoreMissing {
				continue
			}
			return versionError(ErrNotReversible, a.Version)
		}
		plan = append(plan, undo)
		if target == nil {
			break
		}
	}
	sortMigrationsDesc(plan)

	log := logging.FromContext(ctx)
	for _, mig := range plan {
		if dryRun {
			pendingColor.Fprint(w, "Can apply")
			fmt.Fprintf(w, " %d/revert %s\n", mig.Version, mig.Description())
			continue
		}
		log.Debug("reverting migration", "version", mig.Version, "file", mig.Filename)
		elapsed, err := m.Apply(ctx, mig)
		if err != nil {
			return err
		}
		appliedColor.Fprint(w, "Applied")
		fmt.Fprintf(w, " %d/revert %s (%s)\n", mig.Version, mig.Description(), elapsed)
	}
	if len(plan) == 0 {
		fmt.Fprintln(w, "No migrations available to revert")
	}
	return nil
}

// Info lists every migration in source with its state in the database.
func (e *Engine) Info(ctx context.Context, source string, opts sqlctl.ConnectOpts) error {
	db, m, err := e.open(ctx, source, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	byVersion := make(map[int64]AppliedMigration, len(applied))
	for _, a := range applied {
		byVersion[a.Version] = a
	}

	w := e.writer()
	for _, mig := range m.Migrations() {
		if mig.Action != ActionDo {
			continue
		}
		fmt.Fprintf(w, "%d/", mig.Version)
		a, ok := byVersion[mig.Version]
		switch {
		case !ok:
			pendingColor.Fprint(w, "pending")
		case a.Md5 != "" && a.Md5 != mig.Md5:
			problemColor.Fprint(w, "installed (different checksum)")
		default:
			appliedColor.Fprint(w, "installed")
		}
		fmt.Fprintf(w, " %s\n", mig.Description())
		delete(byVersion, mig.Version)
	}
	for _, a := range applied {
		if _, missing := byVersion[a.Version]; !missing {
			continue
		}
		fmt.Fprintf(w, "%d/", a.Version)
		problemColor.Fprint(w, "installed (missing locally)")
		fmt.Fprintf(w, " %s\n", a.Name)
	}
	return nil
}

package database

import (
	"context"
	"log/slog"

	"github.com/bcomnes/sqlctl"
	"github.com/bcomnes/sqlctl/connect"
	"github.com/bcomnes/sqlctl/driver"
	"github.com/bcomnes/sqlctl/logging"
)

// Confirm says whether a drop asks the user first.
type Confirm int

const (
	// Prompt asks before dropping.
	Prompt Confirm = iota
	// SkipPrompt drops without asking.
	SkipPrompt
)

// Mode selects how a database is dropped.
type Mode int

const (
	// SafeDrop lets the server refuse while other sessions are connected.
	SafeDrop Mode = iota
	// ForceDrop terminates other sessions first where the driver can.
	ForceDrop
)

// DropPolicy controls the destructive step of Drop and Reset.
type DropPolicy struct {
	Confirm Confirm
	Mode    Mode
}

// URLResolver picks the connection string for an invocation.
type URLResolver interface {
	ResolveDatabaseURL(opts sqlctl.ConnectOpts) (string, error)
}

// Lifecycle is the part of a driver the orchestrator needs.
type Lifecycle interface {
	Exists(ctx context.Context, url string) (bool, error)
	Create(ctx context.Context, url string, opts driver.CreateOptions) error
	Drop(ctx context.Context, url string) error
	ForceDrop(ctx context.Context, url string) error
}

// Confirmer asks the user whether subject may be destroyed.
type Confirmer interface {
	ConfirmDestructive(subject string) bool
}

// MigrationRunner applies the migrations in source.
type MigrationRunner interface {
	Run(ctx context.Context, source string, opts sqlctl.ConnectOpts, dryRun, ignoreMissing bool, target *int64) error
}

// Orchestrator runs the lifecycle verbs. All fields are required except
// Logger.
type Orchestrator struct {
	Resolver URLResolver
	Drivers  Lifecycle
	Gate     Confirmer
	Migrator MigrationRunner
	Logger   *slog.Logger
}

func (o *Orchestrator) withLogger(ctx context.Context) context.Context {
	if o.Logger == nil {
		return ctx
	}
	return logging.WithLogger(ctx, o.Logger)
}

// resolve fixes the connection string for the rest of the verb so the existence check
// and the action hit the same endpoint.
func (o *Orchestrator) resolve(opts sqlctl.ConnectOpts) (sqlctl.ConnectOpts, error) {
	url, err := o.Resolver.ResolveDatabaseURL(opts)
	if err != nil {
		return opts, err
	}
	return opts.WithDatabaseURL(url), nil
}

func (o *Orchestrator) exists(ctx context.Context, opts sqlctl.ConnectOpts) (bool, error) {
	return connect.Retry(ctx, opts, o.Drivers.Exists)
}

// Create creates the database unless it already exists.
func (o *Orchestrator) Create(ctx context.Context, opts sqlctl.ConnectOpts) error {
	ctx = o.withLogger(ctx)
	opts, err := o.resolve(opts)
	if err != nil {
		return err
	}
	exists, err := o.exists(ctx, opts)
	if err != nil {
		return err
	}
	log := logging.FromContext(ctx)
	if exists {
		log.Debug("database already exists", "url", opts.DatabaseURL)
		return nil
	}
	log.Debug("creating database", "url", opts.DatabaseURL)
	return o.Drivers.Create(ctx, opts.DatabaseURL, driver.CreateOptions{WAL: opts.SqliteCreateDBWAL})
}

// Drop drops the database if it exists. With the Prompt policy the user is
// asked first; declining returns nil and leaves the database alone.
func (o *Orchestrator) Drop(ctx context.Context, opts sqlctl.ConnectOpts, policy DropPolicy) error {
	_, err := o.drop(o.withLogger(ctx), opts, policy)
	return err
}

// drop reports whether the user declined.
func (o *Orchestrator) drop(ctx context.Context, opts sqlctl.ConnectOpts, policy DropPolicy) (declined bool, err error) {
	opts, err = o.resolve(opts)
	if err != nil {
		return false, err
	}
	if policy.Confirm == Prompt && !o.Gate.ConfirmDestructive(opts.DatabaseURL) {
		return true, nil
	}
	exists, err := o.exists(ctx, opts)
	if err != nil || !exists {
		return false, err
	}

	logging.FromContext(ctx).Debug("dropping database", "url", opts.DatabaseURL, "force", policy.Mode == ForceDrop)
	if policy.Mode == ForceDrop {
		return false, o.Drivers.ForceDrop(ctx, opts.DatabaseURL)
	}
	return false, o.Drivers.Drop(ctx, opts.DatabaseURL)
}

// Reset drops the database and sets it up again. Declining the drop stops
// the reset with the database untouched.
func (o *Orchestrator) Reset(ctx context.Context, source string, opts sqlctl.ConnectOpts, policy DropPolicy) error {
	ctx = o.withLogger(ctx)
	declined, err := o.drop(ctx, opts, policy)
	if err != nil || declined {
		return err
	}
	return o.setup(ctx, source, opts)
}

// Setup creates the database if needed and applies every pending migration
// in source.
func (o *Orchestrator) Setup(ctx context.Context, source string, opts sqlctl.ConnectOpts) error {
	return o.setup(o.withLogger(ctx), source, opts)
}

func (o *Orchestrator) setup(ctx context.Context, source string, opts sqlctl.ConnectOpts) error {
	if err := o.Create(ctx, opts); err != nil {
		return err
	}
	opts, err := o.resolve(opts)
	if err != nil {
		return err
	}
	return o.Migrator.Run(ctx, source, opts, false, false, nil)
}

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bcomnes/sqlctl"
	"github.com/bcomnes/sqlctl/config"
	"github.com/bcomnes/sqlctl/confirm"
	"github.com/bcomnes/sqlctl/database"
	"github.com/bcomnes/sqlctl/driver"
	"github.com/bcomnes/sqlctl/logging"
	"github.com/bcomnes/sqlctl/migrate"
)

// Viper keys.
const (
	keyDatabaseURL    = "database_url"
	keyConnectTimeout = "connect_timeout"
	keySqliteWAL      = "sqlite_create_db_wal"
	keyLogLevel       = "log_level"
	keyLogFormat      = "log_format"
)

// app carries the per-invocation state shared by the subcommands.
type app struct {
	v      *viper.Viper
	stdin  io.ReadCloser
	stdout io.Writer
	stderr io.Writer

	resolver *config.Resolver
	logger   *slog.Logger
}

func newApp(stdin io.ReadCloser, stdout, stderr io.Writer) *app {
	return &app{
		v:        viper.New(),
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		resolver: config.NewResolver(),
	}
}

func newRootCmd(stdin io.ReadCloser, stdout, stderr io.Writer) *cobra.Command {
	a := newApp(stdin, stdout, stderr)

	root := &cobra.Command{
		Use:           "sqlctl",
		Short:         "Create, drop and migrate SQL databases",
		Version:       sqlctl.Version + " (" + sqlctl.GitCommit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.prepare()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	_ = a.v.BindPFlag(keyLogLevel, flags.Lookup("log-level"))
	_ = a.v.BindPFlag(keyLogFormat, flags.Lookup("log-format"))
	_ = a.v.BindEnv(keyLogLevel, "SQLCTL_LOG_LEVEL")

	root.AddCommand(
		a.databaseCmd(),
		a.migrateCmd(),
		a.configCmd(),
	)
	return root
}

// prepare runs before every subcommand: it builds the logger and makes sure
// the config document exists and parses.
func (a *app) prepare() error {
	logger, err := logging.New(logging.Config{
		Level:  a.v.GetString(keyLogLevel),
		Format: a.v.GetString(keyLogFormat),
	}, a.stderr)
	if err != nil {
		return err
	}
	a.logger = logger
	_, err = a.resolver.Read()
	return err
}

// connectFlags registers the flags every command that talks to a database
// accepts.
func (a *app) connectFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("database-url", "D", "", "location of the database; DATABASE_URL takes precedence when set")
	flags.Uint64("connect-timeout", uint64(sqlctl.DefaultConnectTimeout/time.Second), "seconds to keep retrying when the database is unreachable; 0 tries once")
	flags.Bool("sqlite-create-db-wal", true, "create new SQLite databases in WAL journal mode")

	// Flags are bound when the command runs so sibling commands do not
	// overwrite each other's bindings.
	prev := cmd.PreRunE
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		_ = a.v.BindPFlag(keyDatabaseURL, cmd.Flags().Lookup("database-url"))
		_ = a.v.BindPFlag(keyConnectTimeout, cmd.Flags().Lookup("connect-timeout"))
		_ = a.v.BindPFlag(keySqliteWAL, cmd.Flags().Lookup("sqlite-create-db-wal"))
		_ = a.v.BindEnv(keyDatabaseURL, config.DatabaseURLKey)
		_ = a.v.BindEnv(keyConnectTimeout, "SQLCTL_CONNECT_TIMEOUT")
		if prev != nil {
			return prev(cmd, args)
		}
		return nil
	}
}

func (a *app) connectOpts() sqlctl.ConnectOpts {
	return sqlctl.ConnectOpts{
		DatabaseURL:       a.v.GetString(keyDatabaseURL),
		ConnectTimeout:    time.Duration(a.v.GetUint64(keyConnectTimeout)) * time.Second,
		SqliteCreateDBWAL: a.v.GetBool(keySqliteWAL),
	}
}

// resolvedOpts applies the config document's connection string to the
// command line options.
func (a *app) resolvedOpts() (sqlctl.ConnectOpts, error) {
	opts := a.connectOpts()
	url, err := a.resolver.ResolveDatabaseURL(opts)
	if err != nil {
		return opts, err
	}
	return opts.WithDatabaseURL(url), nil
}

// withLogger attaches the logger to the command's context.
func (a *app) withLogger(cmd *cobra.Command) context.Context {
	return logging.WithLogger(cmd.Context(), a.logger)
}

func (a *app) engine(src migrationSource) *migrate.Engine {
	return &migrate.Engine{
		Drivers:     driver.Default(),
		SchemaTable: src.schemaTable,
		Newline:     src.newline,
		Out:         a.stdout,
	}
}

func (a *app) orchestrator(src migrationSource) *database.Orchestrator {
	return &database.Orchestrator{
		Resolver: a.resolver,
		Drivers:  driver.Default(),
		Gate: &confirm.Gate{
			Reader: &confirm.Terminal{Stdin: a.stdin, Stdout: a.stdout},
			Out:    a.stdout,
			Color:  isTerminal(a.stdout),
		},
		Migrator: a.engine(src),
		Logger:   a.logger,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && readline.IsTerminal(int(f.Fd()))
}

// migrationSource holds the flags locating and reading the migrations.
type migrationSource struct {
	source      string
	schemaTable string
	newline     string
}

func (m *migrationSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.source, "source", "migrations", "path to the folder containing migrations")
	cmd.Flags().StringVar(&m.schemaTable, "schema-table", migrate.DefaultSchemaTable, "table recording applied migrations")
	cmd.Flags().StringVar(&m.newline, "newline", "", "normalize line endings to LF, CR or CRLF before checksumming")
}

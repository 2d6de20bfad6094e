package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bcomnes/sqlctl/migrate"
)

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Group of commands for creating and running migrations",
	}
	cmd.AddCommand(
		a.migrateAddCmd(),
		a.migrateRunCmd(),
		a.migrateRevertCmd(),
		a.migrateInfoCmd(),
		a.migrateBuildScriptCmd(),
	)
	return cmd
}

func (a *app) migrateAddCmd() *cobra.Command {
	var (
		source                string
		reversible            bool
		sequential, timestamp bool
	)
	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Create a new migration with the given description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := migrate.Add(source, args[0], reversible, sequential, timestamp)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintf(a.stdout, "Creating %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "migrations", "path to the folder containing migrations")
	cmd.Flags().BoolVarP(&reversible, "reversible", "r", false, "also create an undo file")
	cmd.Flags().BoolVarP(&sequential, "sequential", "s", false, "number the migration sequentially")
	cmd.Flags().BoolVarP(&timestamp, "timestamp", "t", false, "number the migration with the current UTC time")
	return cmd
}

// migrationFlags holds the flags shared by run and revert.
type migrationFlags struct {
	migrationSource
	dryRun        bool
	ignoreMissing bool
	target        string
}

func (f *migrationFlags) register(cmd *cobra.Command, targetHelp string) {
	f.migrationSource.register(cmd)
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "list the migrations that would run without running them")
	cmd.Flags().BoolVar(&f.ignoreMissing, "ignore-missing", false, "ignore applied migrations that are missing in the source")
	cmd.Flags().StringVar(&f.target, "target-version", "", targetHelp)
}

func (f *migrationFlags) targetVersion() (*int64, error) {
	if f.target == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(f.target, 10, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("invalid target version %q", f.target)
	}
	return &v, nil
}

func (a *app) migrateRunCmd() *cobra.Command {
	var f migrationFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := f.targetVersion()
			if err != nil {
				return err
			}
			opts, err := a.resolvedOpts()
			if err != nil {
				return err
			}
			return a.engine(f.migrationSource).Run(a.withLogger(cmd), f.source, opts, f.dryRun, f.ignoreMissing, target)
		},
	}
	f.register(cmd, "apply migrations up to and including this version")
	a.connectFlags(cmd)
	return cmd
}

func (a *app) migrateRevertCmd() *cobra.Command {
	var f migrationFlags
	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Revert the latest migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := f.targetVersion()
			if err != nil {
				return err
			}
			opts, err := a.resolvedOpts()
			if err != nil {
				return err
			}
			return a.engine(f.migrationSource).Revert(a.withLogger(cmd), f.source, opts, f.dryRun, f.ignoreMissing, target)
		},
	}
	f.register(cmd, "revert migrations down to, but not including, this version; 0 reverts everything")
	a.connectFlags(cmd)
	return cmd
}

func (a *app) migrateInfoCmd() *cobra.Command {
	var src migrationSource
	cmd := &cobra.Command{
		Use:   "info",
		Short: "List all available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.resolvedOpts()
			if err != nil {
				return err
			}
			return a.engine(src).Info(a.withLogger(cmd), src.source, opts)
		},
	}
	src.register(cmd)
	a.connectFlags(cmd)
	return cmd
}

func (a *app) migrateBuildScriptCmd() *cobra.Command {
	var (
		source string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "build-script",
		Short: "Generate a Go file that embeds the migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := migrate.BuildScript(source, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "migrations", "path to the folder containing migrations")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

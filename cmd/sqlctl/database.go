package main

import (
	"github.com/spf13/cobra"

	"github.com/bcomnes/sqlctl/database"
)

func (a *app) databaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "database",
		Aliases: []string{"db"},
		Short:   "Group of commands for creating and dropping your database",
	}
	cmd.AddCommand(
		a.databaseCreateCmd(),
		a.databaseDropCmd(),
		a.databaseResetCmd(),
		a.databaseSetupCmd(),
	)
	return cmd
}

// dropPolicyFlags registers -y and -f and returns a getter for the policy
// they describe.
func dropPolicyFlags(cmd *cobra.Command) func() database.DropPolicy {
	yes := cmd.Flags().BoolP("yes", "y", false, "automatic confirmation; without it you are prompted before dropping")
	force := cmd.Flags().BoolP("force", "f", false, "terminate other connections to the database first (PostgreSQL only)")
	return func() database.DropPolicy {
		p := database.DropPolicy{Confirm: database.Prompt, Mode: database.SafeDrop}
		if *yes {
			p.Confirm = database.SkipPrompt
		}
		if *force {
			p.Mode = database.ForceDrop
		}
		return p
	}
}

func (a *app) databaseCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Creates the database specified in your DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.orchestrator(migrationSource{}).Create(cmd.Context(), a.connectOpts())
		},
	}
	a.connectFlags(cmd)
	return cmd
}

func (a *app) databaseDropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drops the database specified in your DATABASE_URL",
		Args:  cobra.NoArgs,
	}
	policy := dropPolicyFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return a.orchestrator(migrationSource{}).Drop(cmd.Context(), a.connectOpts(), policy())
	}
	a.connectFlags(cmd)
	return cmd
}

func (a *app) databaseResetCmd() *cobra.Command {
	var src migrationSource
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drops the database, then recreates it and runs all migrations",
		Args:  cobra.NoArgs,
	}
	policy := dropPolicyFlags(cmd)
	src.register(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return a.orchestrator(src).Reset(cmd.Context(), src.source, a.connectOpts(), policy())
	}
	a.connectFlags(cmd)
	return cmd
}

func (a *app) databaseSetupCmd() *cobra.Command {
	var src migrationSource
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Creates the database and runs any pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.orchestrator(src).Setup(cmd.Context(), src.source, a.connectOpts())
		},
	}
	src.register(cmd)
	a.connectFlags(cmd)
	return cmd
}

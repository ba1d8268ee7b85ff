package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/support-portal/internal/bootstrap"
)

func newMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Runs the SQL migrations on Postgres, or the schema auto-migration on MySQL and SQLite.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	return cmd
}

func runMigrate(cmd *cobra.Command, configPath string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx, cfg, logger); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s database\n", store.Driver)
	return nil
}

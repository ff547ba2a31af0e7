package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"regdesk/internal/platform/config"
	"regdesk/internal/platform/logger"
	"regdesk/internal/platform/migrations"
	"regdesk/internal/registration/store/postgres"
	"regdesk/internal/registration/store/sqlite"
)

var migrateBackend string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply registry schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if migrateBackend != "" {
			cfg.Registry.Backend = config.Backend(strings.ToLower(migrateBackend))
		}
		log := logger.New(cfg.Server)
		ctx := cmd.Context()

		switch cfg.Registry.Backend {
		case config.BackendPostgres:
			if cfg.Registry.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required to migrate postgres")
			}
			db, err := postgres.Open(ctx, cfg.Registry.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			applied, err := migrations.Up(ctx, db, migrations.Postgres, log)
			if err != nil {
				return err
			}
			version, err := migrations.Version(ctx, db, migrations.Postgres)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "postgres: applied %d migration(s), schema version %d\n", applied, version)
		case config.BackendSQLite:
			store, err := sqlite.Open(ctx, cfg.Registry.SQLitePath, log)
			if err != nil {
				return err
			}
			defer store.Close()
			version, err := store.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sqlite: %s at schema version %d\n", cfg.Registry.SQLitePath, version)
		default:
			return fmt.Errorf("backend %q has no schema to migrate (want postgres or sqlite)", cfg.Registry.Backend)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateBackend, "backend", "", "Backend to migrate: postgres or sqlite (default REGISTRY_BACKEND)")
}

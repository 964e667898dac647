package main

import (
	"errors"

	"dbdesigner/internal/config"
	"dbdesigner/internal/database"

	"github.com/spf13/cobra"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.SetupLogging()
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the designer tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DB_URL or DB_HOST is required to migrate")
			}

			ctx := cmd.Context()
			if err := database.EnsureDatabaseExists(ctx, cfg); err != nil {
				return err
			}
			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			return database.RunMigrations(ctx, pool)
		},
	}
}

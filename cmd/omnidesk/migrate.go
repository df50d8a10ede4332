package main

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	migrations "github.com/omnidesk/omnidesk/db"
	"github.com/omnidesk/omnidesk/internal/config"
	"github.com/omnidesk/omnidesk/internal/db"
	"github.com/omnidesk/omnidesk/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|version|force N]",
		Short: "Apply or roll back database migrations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)

			migrationsFS, err := fs.Sub(migrations.MigrationsFS, "migrations")
			if err != nil {
				return fmt.Errorf("migrations fs: %w", err)
			}
			return db.RunMigrate(logger.L, cfg.Postgres, migrationsFS, args[0], args[1:])
		},
	}
}

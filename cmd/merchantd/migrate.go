package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/config"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/merchant-onboarding/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.Database.Driver != config.DriverSQLite {
				return fmt.Errorf("migrations only apply to the %s driver", config.DriverSQLite)
			}

			db, err := database.New(database.Config{
				Path:            cfg.Database.Path,
				MaxOpenConns:    cfg.Database.MaxOpenConns,
				MaxIdleConns:    cfg.Database.MaxIdleConns,
				ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := database.NewMigrator(db, logger)
			applied, err := migrator.Migrate(cmd.Context(), sqlite.Migrations, sqlite.MigrationsDir)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			versions, err := migrator.Applied(cmd.Context())
			if err != nil {
				return err
			}

			logger.Info("Migrations applied",
				zap.String("path", db.Path()),
				zap.Int("applied", applied),
				zap.Ints("versions", versions))
			return nil
		},
	}
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			conn, err := postgres.NewConnection(cfg.Database.PostgresConfig, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.RunMigrations(cfg.Database.MigrationsDir); err != nil {
				return err
			}
			logger.Info("Migrations applied", logging.String("dir", cfg.Database.MigrationsDir))
			return nil
		},
	}
}

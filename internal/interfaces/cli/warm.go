package cli

import (
	"github.com/spf13/cobra"

	"github.com/ecometric/esg-dashboard/internal/infrastructure/cache"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres/repositories"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/redis"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/scheduler"
)

func newWarmCmd(opts *rootOptions) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "warm-rankings",
		Short: "Rebuild the ESG ranking index from the database once and exit",
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

			client, err := redis.NewClient(&cfg.Redis, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			redisCache := redis.NewRedisCache(client, logger,
				redis.WithPrefix(cfg.Cache.KeyPrefix),
				redis.WithDefaultTTL(cfg.Cache.DefaultTTL),
			)

			if size <= 0 {
				size = cfg.Scheduler.RankingWarmSize
			}
			warmer, err := scheduler.NewRankingWarmer(scheduler.WarmerConfig{
				Repository:   repositories.NewCompanyRepository(conn, logger),
				RankingIndex: cache.NewRankingIndex(redisCache, logger, nil),
				Logger:       logger,
				Size:         size,
			})
			if err != nil {
				return err
			}

			count, err := warmer.WarmOnce(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("Ranking index warmed", logging.Int("companies", count))
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "how many companies to load (default: scheduler.ranking_warm_size)")
	return cmd
}

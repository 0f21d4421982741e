package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	appanalytics "github.com/ecometric/esg-dashboard/internal/application/analytics"
	appcompany "github.com/ecometric/esg-dashboard/internal/application/company"
	appexport "github.com/ecometric/esg-dashboard/internal/application/export"
	appportfolio "github.com/ecometric/esg-dashboard/internal/application/portfolio"
	"github.com/ecometric/esg-dashboard/internal/config"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/cache"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres/repositories"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/redis"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/messaging/kafka"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/prometheus"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/storage/minio"
	httpserver "github.com/ecometric/esg-dashboard/internal/interfaces/http"
	"github.com/ecometric/esg-dashboard/internal/interfaces/http/handlers"
	"github.com/ecometric/esg-dashboard/internal/scheduler"
)

// ensureTopicsTimeout bounds topic creation at startup.
const ensureTopicsTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ESG dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			return serve(cfg, logger)
		},
	}
}

func serve(cfg *config.Config, logger logging.Logger) error {
	logger.Info("Starting ESG dashboard",
		logging.String("version", Version), logging.Int("port", cfg.Server.Port))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "esg",
		EnableGoMetrics:      true,
		EnableProcessMetrics: true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	conn, err := postgres.NewConnection(cfg.Database.PostgresConfig, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	redisClient, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	redisCache := redis.NewRedisCache(redisClient, logger,
		redis.WithPrefix(cfg.Cache.KeyPrefix),
		redis.WithDefaultTTL(cfg.Cache.DefaultTTL),
	)
	companyCache := cache.NewCompanyCache(redisCache, logger, metrics,
		cache.WithCompanyTTL(cfg.Cache.CompanyTTL))
	rankingIndex := cache.NewRankingIndex(redisCache, logger, metrics)

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer producer.Close()
	ensureTopics(cfg, logger)

	minioClient, err := minio.NewClient(&cfg.MinIO, logger)
	if err != nil {
		return err
	}
	defer minioClient.Close()

	companyRepo := repositories.NewCompanyRepository(conn, logger)
	portfolioRepo := repositories.NewPortfolioRepository(conn, logger)
	historyRepo := repositories.NewHistoryRepository(conn, logger)
	statsRepo := repositories.NewCompanyStatsRepository(conn, logger)

	companySvc, err := appcompany.NewService(appcompany.ServiceConfig{
		Repository:   companyRepo,
		Cache:        companyCache,
		RankingIndex: rankingIndex,
		History:      historyRepo,
		Publisher:    producer,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	portfolioSvc, err := appportfolio.NewService(appportfolio.ServiceConfig{
		Repository: portfolioRepo,
		Companies:  companySvc,
		History:    historyRepo,
		Publisher:  producer,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	analyticsSvc, err := appanalytics.NewService(appanalytics.ServiceConfig{
		Stats:     statsRepo,
		History:   historyRepo,
		Cache:     redisCache,
		SectorTTL: cfg.Cache.SectorTTL,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	exportSvc, err := appexport.NewService(appexport.ServiceConfig{
		Portfolios: portfolioRepo,
		Companies:  companySvc,
		Store:      minio.NewExportStore(minioClient, logger),
		Publisher:  producer,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	if cfg.Scheduler.Enabled {
		warmer, err := scheduler.NewRankingWarmer(scheduler.WarmerConfig{
			Repository:   companyRepo,
			RankingIndex: rankingIndex,
			Metrics:      metrics,
			Logger:       logger,
			Spec:         cfg.Scheduler.RankingWarmSpec,
			Size:         cfg.Scheduler.RankingWarmSize,
		})
		if err != nil {
			return err
		}
		if err := warmer.Start(); err != nil {
			return err
		}
		defer warmer.Stop()
	}

	router, err := httpserver.NewRouter(httpserver.RouterConfig{
		Companies:  companySvc,
		Portfolios: portfolioSvc,
		Analytics:  analyticsSvc,
		Exports:    exportSvc,
		HealthChecks: map[string]handlers.CheckFunc{
			"postgres": conn.HealthCheck,
			"redis":    redisClient.Ping,
			"minio": func(ctx context.Context) error {
				if status := minioClient.HealthCheck(ctx); !status.Healthy {
					return fmt.Errorf("minio unhealthy: %s", status.Error)
				}
				return nil
			},
		},
		Metrics:        metrics,
		MetricsHandler: collector.Handler(),
		Logger:         logger,
		Mode:           cfg.Server.Mode,
	})
	if err != nil {
		return err
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// ensureTopics creates the event topics up front so the first publish does
// not race broker auto-creation. Failure is not fatal; the broker may still
// auto-create.
func ensureTopics(cfg *config.Config, logger logging.Logger) {
	manager, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		logger.Warn("Topic manager unavailable", logging.Err(err))
		return
	}
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), ensureTopicsTimeout)
	defer cancel()
	if err := manager.EnsureDefaultTopics(ctx); err != nil {
		logger.Warn("Topic creation failed", logging.Err(err))
	}
}

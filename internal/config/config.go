// Package config defines the configuration structures for the ESG dashboard
// backend. No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/redis"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/messaging/kafka"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/storage/minio"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig wraps the PostgreSQL pool settings plus the migrations
// directory applied at startup.
type DatabaseConfig struct {
	postgres.PostgresConfig `mapstructure:",squash"`

	MigrationsDir string `mapstructure:"migrations_dir"`
}

// CacheConfig holds the typed cache namespace and TTLs layered on Redis.
type CacheConfig struct {
	KeyPrefix  string        `mapstructure:"key_prefix"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	CompanyTTL time.Duration `mapstructure:"company_ttl"`
	SectorTTL  time.Duration `mapstructure:"sector_ttl"`
}

// SchedulerConfig controls the background ranking warm-up job.
type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	RankingWarmSpec string `mapstructure:"ranking_warm_spec"`
	RankingWarmSize int    `mapstructure:"ranking_warm_size"`
}

// Config is the root configuration for the service. Infrastructure packages
// own their connection structs; this composes them.
type Config struct {
	Server    ServerConfig         `mapstructure:"server"`
	Database  DatabaseConfig       `mapstructure:"database"`
	Redis     redis.RedisConfig    `mapstructure:"redis"`
	Cache     CacheConfig          `mapstructure:"cache"`
	Kafka     kafka.ProducerConfig `mapstructure:"kafka"`
	MinIO     minio.Config         `mapstructure:"minio"`
	Scheduler SchedulerConfig      `mapstructure:"scheduler"`
	Log       logging.LogConfig    `mapstructure:"log"`
}

// Validate performs semantic validation of the fully populated Config. It
// returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.Username == "" {
		return fmt.Errorf("config: database.username is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("config: database.database is required")
	}

	if c.Redis.Addr == "" && c.Redis.Mode != "sentinel" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}

	if c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required")
	}

	if c.Scheduler.RankingWarmSize < 1 {
		return fmt.Errorf("config: scheduler.ranking_warm_size must be >= 1, got %d", c.Scheduler.RankingWarmSize)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

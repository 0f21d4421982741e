package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost = "localhost"
	DefaultDBPort = 5432
	DefaultDBName = "esg_dashboard"

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker = "localhost:9092"

	DefaultMinIOEndpoint = "localhost:9000"

	DefaultCachePrefix     = "esg:"
	DefaultCacheTTL        = 15 * time.Minute
	DefaultCompanyCacheTTL = time.Hour
	DefaultSectorCacheTTL  = 10 * time.Minute

	DefaultRankingWarmSpec = "@every 5m"
	DefaultRankingWarmSize = 100

	DefaultMigrationsDir = "migrations"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills zero-value fields in cfg with the service defaults.
// Fields already set by the caller are left unchanged so explicit
// configuration always wins. Must run after unmarshalling and before
// Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationsDir == "" {
		cfg.Database.MigrationsDir = DefaultMigrationsDir
	}

	if cfg.Redis.Addr == "" && cfg.Redis.Mode != "sentinel" {
		cfg.Redis.Addr = DefaultRedisAddr
	}

	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCachePrefix
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = DefaultCacheTTL
	}
	if cfg.Cache.CompanyTTL == 0 {
		cfg.Cache.CompanyTTL = DefaultCompanyCacheTTL
	}
	if cfg.Cache.SectorTTL == 0 {
		cfg.Cache.SectorTTL = DefaultSectorCacheTTL
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}

	if cfg.Scheduler.RankingWarmSpec == "" {
		cfg.Scheduler.RankingWarmSpec = DefaultRankingWarmSpec
	}
	if cfg.Scheduler.RankingWarmSize == 0 {
		cfg.Scheduler.RankingWarmSize = DefaultRankingWarmSize
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

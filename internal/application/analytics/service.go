// Package analytics serves the dashboard's read-side aggregations: sector
// averages and historical trends.
package analytics

import (
	"context"
	"time"

	"github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/internal/domain/history"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/redis"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

const (
	sectorStatsKey = "analytics:sectors"

	defaultSectorTTL   = 10 * time.Minute
	defaultTrendWindow = 365 * 24 * time.Hour
)

// TrendPoint is one point of a trend series.
type TrendPoint struct {
	Value       float64   `json:"value"`
	DataQuality string    `json:"data_quality,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// TrendResult is the trend series for one entity and data type.
type TrendResult struct {
	EntityID string       `json:"entity_id"`
	DataType string       `json:"data_type"`
	From     time.Time    `json:"from"`
	To       time.Time    `json:"to"`
	Points   []TrendPoint `json:"points"`
}

// Service is the analytics read surface.
type Service interface {
	// SectorStats returns per-sector ESG averages, cached briefly since the
	// aggregation scans the whole company table.
	SectorStats(ctx context.Context) ([]*company.SectorStats, error)

	// Trend returns the historical series for an entity. Zero from/to default
	// to the trailing year ending now.
	Trend(ctx context.Context, entityID, dataType string, from, to time.Time) (*TrendResult, error)
}

// ServiceConfig holds the dependencies for constructing the service.
type ServiceConfig struct {
	Stats     company.StatsRepository
	History   history.Repository
	Cache     redis.Cache
	SectorTTL time.Duration
	Logger    logging.Logger
}

type serviceImpl struct {
	stats     company.StatsRepository
	history   history.Repository
	cache     redis.Cache
	sectorTTL time.Duration
	logger    logging.Logger
}

// NewService constructs an analytics Service.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Stats == nil {
		return nil, errors.NewValidation("analytics service requires StatsRepository")
	}
	if cfg.History == nil {
		return nil, errors.NewValidation("analytics service requires history.Repository")
	}
	if cfg.Logger == nil {
		return nil, errors.NewValidation("analytics service requires Logger")
	}

	ttl := cfg.SectorTTL
	if ttl == 0 {
		ttl = defaultSectorTTL
	}

	return &serviceImpl{
		stats:     cfg.Stats,
		history:   cfg.History,
		cache:     cfg.Cache,
		sectorTTL: ttl,
		logger:    cfg.Logger,
	}, nil
}

func (s *serviceImpl) SectorStats(ctx context.Context) ([]*company.SectorStats, error) {
	if s.cache == nil {
		return s.stats.SectorStats(ctx)
	}

	var stats []*company.SectorStats
	err := s.cache.GetOrSet(ctx, sectorStatsKey, &stats, s.sectorTTL,
		func(ctx context.Context) (interface{}, error) {
			return s.stats.SectorStats(ctx)
		})
	if err != nil {
		// Cache trouble must not take down the read path.
		if errors.IsCode(err, errors.ErrCodeCacheError) || errors.IsCode(err, errors.ErrCodeSerialization) {
			s.logger.Warn("Sector stats cache unavailable, reading store directly", logging.Err(err))
			return s.stats.SectorStats(ctx)
		}
		return nil, err
	}
	return stats, nil
}

func (s *serviceImpl) Trend(ctx context.Context, entityID, dataType string, from, to time.Time) (*TrendResult, error) {
	if entityID == "" {
		return nil, errors.NewValidation("entityID cannot be empty")
	}
	switch dataType {
	case history.DataTypeESGRating, history.DataTypeCarbonEmission,
		history.DataTypeSocialImpact, history.DataTypePortfolioScore:
	default:
		return nil, errors.NewValidation("unknown data type: " + dataType)
	}

	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultTrendWindow)
	}
	if from.After(to) {
		return nil, errors.NewValidation("from must not be after to")
	}

	records, err := s.history.FindByEntity(ctx, entityID, dataType, from, to)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, len(records))
	for i, r := range records {
		points[i] = TrendPoint{Value: r.Value, DataQuality: r.DataQuality, RecordedAt: r.RecordedAt}
	}

	return &TrendResult{
		EntityID: entityID,
		DataType: dataType,
		From:     from,
		To:       to,
		Points:   points,
	}, nil
}

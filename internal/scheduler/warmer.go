// Package scheduler runs the background jobs that keep derived stores fresh.
// Currently one job: periodically rebuilding the ESG ranking index from the
// durable store so index drift and Redis restarts heal without traffic.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/cache"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/prometheus"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

const defaultWarmTimeout = 30 * time.Second

// RankingWarmer rebuilds the ranking index on a cron schedule.
type RankingWarmer struct {
	repo    company.Repository
	ranking *cache.RankingIndex
	metrics *prometheus.AppMetrics
	logger  logging.Logger

	spec string
	size int

	cron *cron.Cron
}

// WarmerConfig holds the dependencies and schedule for the warmer.
type WarmerConfig struct {
	Repository   company.Repository
	RankingIndex *cache.RankingIndex
	Metrics      *prometheus.AppMetrics
	Logger       logging.Logger

	// Spec is a cron expression or @every duration. Size caps how many
	// companies each warm-up loads.
	Spec string
	Size int
}

// NewRankingWarmer constructs the warmer and validates the schedule.
func NewRankingWarmer(cfg WarmerConfig) (*RankingWarmer, error) {
	if cfg.Repository == nil {
		return nil, errors.NewValidation("ranking warmer requires Repository")
	}
	if cfg.RankingIndex == nil {
		return nil, errors.NewValidation("ranking warmer requires RankingIndex")
	}
	if cfg.Logger == nil {
		return nil, errors.NewValidation("ranking warmer requires Logger")
	}
	if cfg.Size < 1 {
		return nil, errors.NewValidation("ranking warmer requires a positive size")
	}
	if cfg.Spec == "" {
		cfg.Spec = "@every 5m"
	}
	if _, err := cron.ParseStandard(cfg.Spec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid warm-up schedule")
	}

	return &RankingWarmer{
		repo:    cfg.Repository,
		ranking: cfg.RankingIndex,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		spec:    cfg.Spec,
		size:    cfg.Size,
	}, nil
}

// Start schedules the job and runs one immediate warm-up so the index is
// populated before the first tick.
func (w *RankingWarmer) Start() error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.spec, w.run); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to schedule warm-up")
	}
	w.cron.Start()
	w.logger.Info("Ranking warm-up scheduled",
		logging.String("spec", w.spec), logging.Int("size", w.size))

	go w.run()
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (w *RankingWarmer) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.logger.Info("Ranking warm-up stopped")
}

func (w *RankingWarmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultWarmTimeout)
	defer cancel()

	if count, err := w.WarmOnce(ctx); err != nil {
		w.logger.Warn("Ranking warm-up failed", logging.Err(err))
	} else {
		w.logger.Debug("Ranking warm-up completed", logging.Int("companies", count))
	}
}

// WarmOnce loads the top-rated companies from the store and upserts their
// scores into the ranking index. Returns how many entries were written.
func (w *RankingWarmer) WarmOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		if w.metrics != nil {
			w.metrics.RankingWarmDuration.WithLabelValues().Observe(time.Since(start).Seconds())
		}
	}()

	top, err := w.repo.FindTopByScore(ctx, w.size)
	if err != nil {
		return 0, err
	}

	entries := make(map[string]float64, len(top))
	for _, c := range top {
		if score, ok := c.OverallScore(); ok {
			entries[c.CompanyID] = score
		}
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := w.ranking.UpsertBatch(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

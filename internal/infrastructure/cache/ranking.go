// Package cache adapts the generic Redis cache into the two derived stores
// the dashboard relies on: the company snapshot cache and the ESG ranking
// index. Both hold disposable copies; the durable store stays authoritative.
package cache

import (
	"context"

	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/redis"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/prometheus"
)

// rankingKey is the sorted set holding company ids scored by overall ESG
// score. A single key serves the whole deployment.
const rankingKey = "rankings:esg_scores"

// RankedCompany is one entry of a top-N query.
type RankedCompany struct {
	CompanyID string  `json:"company_id"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}

// RankingIndex maintains the sorted-set ranking of companies by overall ESG
// score. Writes are upserts; a company appears at most once.
type RankingIndex struct {
	cache   redis.Cache
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

func NewRankingIndex(cache redis.Cache, log logging.Logger, metrics *prometheus.AppMetrics) *RankingIndex {
	return &RankingIndex{cache: cache, logger: log, metrics: metrics}
}

// Upsert inserts or re-scores the company in the index.
func (r *RankingIndex) Upsert(ctx context.Context, companyID string, score float64) error {
	err := r.cache.ZAdd(ctx, rankingKey, redis.ZMember{Score: score, Member: companyID})
	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		r.metrics.RankingUpsertsTotal.WithLabelValues(status).Inc()
	}
	return err
}

// UpsertBatch re-scores many companies in one round trip. Used by the
// warm-up job.
func (r *RankingIndex) UpsertBatch(ctx context.Context, entries map[string]float64) error {
	if len(entries) == 0 {
		return nil
	}
	members := make([]redis.ZMember, 0, len(entries))
	for id, score := range entries {
		members = append(members, redis.ZMember{Score: score, Member: id})
	}
	return r.cache.ZAdd(ctx, rankingKey, members...)
}

// TopN returns the n best-scored companies, highest first, with 1-based
// ranks.
func (r *RankingIndex) TopN(ctx context.Context, n int) ([]RankedCompany, error) {
	if n <= 0 {
		return nil, nil
	}
	members, err := r.cache.ZRevRangeWithScores(ctx, rankingKey, 0, int64(n-1))
	if err != nil {
		return nil, err
	}
	ranked := make([]RankedCompany, len(members))
	for i, m := range members {
		ranked[i] = RankedCompany{CompanyID: m.Member, Score: m.Score, Rank: i + 1}
	}
	return ranked, nil
}

// Remove drops the company from the index.
func (r *RankingIndex) Remove(ctx context.Context, companyID string) error {
	return r.cache.ZRem(ctx, rankingKey, companyID)
}

// Score returns the company's indexed score. The bool reports presence.
func (r *RankingIndex) Score(ctx context.Context, companyID string) (float64, bool, error) {
	score, err := r.cache.ZScore(ctx, rankingKey, companyID)
	if err != nil {
		if err == redis.ErrCacheMiss {
			return 0, false, nil
		}
		return 0, false, err
	}
	return score, true, nil
}

// Size returns the number of indexed companies.
func (r *RankingIndex) Size(ctx context.Context) (int64, error) {
	return r.cache.ZCard(ctx, rankingKey)
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/redis"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/prometheus"
)

const (
	companyKeyPrefix  = "company:"
	companyCacheName  = "company"
	defaultCompanyTTL = time.Hour
)

// CompanyCache is the read-through snapshot cache in front of the company
// store. Writers refresh entries with Put after every store write so readers
// never see stale ratings for longer than a write takes to land.
type CompanyCache struct {
	cache   redis.Cache
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	ttl     time.Duration
}

type CompanyCacheOption func(*CompanyCache)

func WithCompanyTTL(ttl time.Duration) CompanyCacheOption {
	return func(c *CompanyCache) { c.ttl = ttl }
}

func NewCompanyCache(cache redis.Cache, log logging.Logger, metrics *prometheus.AppMetrics, opts ...CompanyCacheOption) *CompanyCache {
	c := &CompanyCache{
		cache:   cache,
		logger:  log,
		metrics: metrics,
		ttl:     defaultCompanyTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func companyKey(companyID string) string {
	return companyKeyPrefix + companyID
}

func (c *CompanyCache) recordAccess(hit bool) {
	if c.metrics != nil {
		prometheus.RecordCacheAccess(c.metrics, companyCacheName, hit)
	}
}

// Get returns the cached snapshot, or nil on a miss. Cache transport errors
// are returned so callers can decide whether to degrade to the store.
func (c *CompanyCache) Get(ctx context.Context, companyID string) (*company.Company, error) {
	var snapshot company.Company
	err := c.cache.Get(ctx, companyKey(companyID), &snapshot)
	if err != nil {
		c.recordAccess(false)
		if err == redis.ErrCacheMiss {
			return nil, nil
		}
		return nil, err
	}
	c.recordAccess(true)
	return &snapshot, nil
}

// GetMany returns cached snapshots for the given ids in one round trip.
// Missing and undecodable entries are simply absent from the result.
func (c *CompanyCache) GetMany(ctx context.Context, companyIDs []string) (map[string]*company.Company, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}
	keys := make([]string, len(companyIDs))
	for i, id := range companyIDs {
		keys[i] = companyKey(id)
	}
	raw, err := c.cache.MGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*company.Company, len(raw))
	for i, id := range companyIDs {
		data, ok := raw[keys[i]]
		if !ok {
			c.recordAccess(false)
			continue
		}
		var snapshot company.Company
		if err := json.Unmarshal(data, &snapshot); err != nil {
			c.recordAccess(false)
			c.logger.Warn("Dropping undecodable company snapshot",
				logging.String("company_id", id), logging.Err(err))
			continue
		}
		c.recordAccess(true)
		result[id] = &snapshot
	}
	return result, nil
}

// Put refreshes the snapshot for the company.
func (c *CompanyCache) Put(ctx context.Context, co *company.Company) error {
	return c.cache.Set(ctx, companyKey(co.CompanyID), co, c.ttl)
}

// PutMany refreshes snapshots for several companies in one round trip.
func (c *CompanyCache) PutMany(ctx context.Context, companies []*company.Company) error {
	if len(companies) == 0 {
		return nil
	}
	items := make(map[string]interface{}, len(companies))
	for _, co := range companies {
		items[companyKey(co.CompanyID)] = co
	}
	return c.cache.MSet(ctx, items, c.ttl)
}

// Evict drops the snapshot. Used on delete; updates go through Put.
func (c *CompanyCache) Evict(ctx context.Context, companyID string) error {
	return c.cache.Delete(ctx, companyKey(companyID))
}

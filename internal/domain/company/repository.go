package company

import (
	"context"
)

// Repository defines the persistence operations for companies. Implementations
// wrap the durable store; they never consult caches. Lookups that find no
// record return an AppError with ErrCodeCompanyNotFound so callers can branch
// with errors.IsNotFound.
type Repository interface {
	Save(ctx context.Context, c *Company) error
	FindByCompanyID(ctx context.Context, companyID string) (*Company, error)

	// FindByCompanyIDs returns the companies matching any of the given ids in
	// a single batched query. Ids with no matching record are simply absent
	// from the result; this is not an error.
	FindByCompanyIDs(ctx context.Context, companyIDs []string) ([]*Company, error)

	FindBySector(ctx context.Context, sector string) ([]*Company, error)

	// FindTopByScore returns up to limit companies ordered by overall ESG
	// score descending. Used as the fallback when the ranking index is empty
	// or unavailable. Ties are broken by company id ascending so the order
	// is deterministic.
	FindTopByScore(ctx context.Context, limit int) ([]*Company, error)

	Delete(ctx context.Context, companyID string) error
}

// SectorStats is one row of the per-sector aggregation used by analytics.
type SectorStats struct {
	Sector           string  `json:"sector"`
	AvgOverallScore  float64 `json:"avg_overall_score"`
	AvgEnvironmental float64 `json:"avg_environmental"`
	AvgSocial        float64 `json:"avg_social"`
	AvgGovernance    float64 `json:"avg_governance"`
	CompanyCount     int     `json:"company_count"`
}

// StatsRepository exposes aggregate queries computed inside the store.
type StatsRepository interface {
	SectorStats(ctx context.Context) ([]*SectorStats, error)
}

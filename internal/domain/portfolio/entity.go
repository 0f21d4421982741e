// Package portfolio defines the portfolio aggregate and the investment-weighted
// ESG scoring engine.
package portfolio

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

// Item is a single holding. InvestmentAmount is a pointer because incoming
// payloads may omit it; only present, strictly positive amounts contribute to
// weighting. CompanyName, Weight, and Rating are derived during aggregation
// and carry a point-in-time snapshot, not a live reference.
type Item struct {
	CompanyID        string             `json:"company_id"`
	CompanyName      string             `json:"company_name,omitempty"`
	InvestmentAmount *float64           `json:"investment_amount,omitempty"`
	Weight           float64            `json:"weight,omitempty"`
	Rating           *company.ESGRating `json:"current_rating,omitempty"`
}

// Aggregate holds the investment-weighted roll-up of a portfolio's holdings.
// It is always re-derived from the items; it is never independently editable.
type Aggregate struct {
	TotalESGScore     float64 `json:"total_esg_score"`
	CarbonFootprint   float64 `json:"carbon_footprint"`
	SocialImpactScore float64 `json:"social_impact_score"`
	AverageRating     string  `json:"average_rating"`
	TotalCompanies    int     `json:"total_companies"`
	TotalInvestment   float64 `json:"total_investment"`
}

// ZeroAggregate is the sentinel aggregate for portfolios with no usable
// holdings: all weighted metrics zero and the "N/A" rating.
func ZeroAggregate() Aggregate {
	return Aggregate{AverageRating: company.RatingNotAvailable}
}

// Portfolio is the durable per-portfolio record.
type Portfolio struct {
	ID          string     `json:"id"`
	PortfolioID string     `json:"portfolio_id"`
	Name        string     `json:"portfolio_name"`
	ClientID    string     `json:"client_id"`
	ClientName  string     `json:"client_name,omitempty"`
	Items       []Item     `json:"items"`
	Aggregate   *Aggregate `json:"aggregate_scores,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// New creates a portfolio record with a fresh internal id.
func New(portfolioID, name, clientID string) (*Portfolio, error) {
	if portfolioID == "" {
		return nil, errors.NewValidation("portfolioID cannot be empty")
	}
	if clientID == "" {
		return nil, errors.NewValidation("clientID cannot be empty")
	}
	now := time.Now().UTC()
	return &Portfolio{
		ID:          uuid.NewString(),
		PortfolioID: portfolioID,
		Name:        name,
		ClientID:    clientID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Validate validates the portfolio entity.
func (p *Portfolio) Validate() error {
	if p.PortfolioID == "" {
		return errors.NewValidation("portfolioID cannot be empty")
	}
	if p.ClientID == "" {
		return errors.NewValidation("clientID cannot be empty")
	}
	for _, item := range p.Items {
		if item.CompanyID == "" {
			return errors.NewValidation("item companyID cannot be empty")
		}
	}
	return nil
}

// CompanyIDs returns the distinct company ids referenced by the portfolio's
// holdings, in first-seen order.
func (p *Portfolio) CompanyIDs() []string {
	seen := make(map[string]struct{}, len(p.Items))
	ids := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		if item.CompanyID == "" {
			continue
		}
		if _, ok := seen[item.CompanyID]; ok {
			continue
		}
		seen[item.CompanyID] = struct{}{}
		ids = append(ids, item.CompanyID)
	}
	return ids
}

// Package company defines the company aggregate and its ESG rating value
// object. The company store owns these records; the ranking index and the
// read-through cache hold derived, disposable copies only.
package company

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecometric/esg-dashboard/pkg/errors"
)

// Rating grades form a fixed lattice, best to worst.
const (
	GradeAAA = "AAA"
	GradeAA  = "AA"
	GradeA   = "A"
	GradeBBB = "BBB"
	GradeBB  = "BB"
	GradeB   = "B"
	GradeC   = "C"
)

// RatingNotAvailable is the sentinel grade for aggregates that cannot be
// derived (empty portfolio, zero total investment).
const RatingNotAvailable = "N/A"

// MaxCarbonFootprint is the domain cap for a single company's carbon
// footprint, in tCO2e.
const MaxCarbonFootprint = 10000.0

// validGrades is the set of grades accepted on incoming ratings.
var validGrades = map[string]struct{}{
	GradeAAA: {}, GradeAA: {}, GradeA: {}, GradeBBB: {}, GradeBB: {}, GradeB: {}, GradeC: {},
}

// GradeFromScore maps an overall ESG score to its letter grade using the
// fixed threshold ladder.
func GradeFromScore(score float64) string {
	switch {
	case score >= 90:
		return GradeAAA
	case score >= 80:
		return GradeAA
	case score >= 70:
		return GradeA
	case score >= 60:
		return GradeBBB
	case score >= 50:
		return GradeBB
	case score >= 40:
		return GradeB
	default:
		return GradeC
	}
}

// ESGRating is an immutable point-in-time rating. A rating update replaces
// the whole value; individual fields are never mutated in place. Sub-scores
// are pointers because they may be absent during transient update windows.
type ESGRating struct {
	OverallScore       *float64  `json:"overall_score,omitempty"`
	EnvironmentalScore *float64  `json:"environmental_score,omitempty"`
	SocialScore        *float64  `json:"social_score,omitempty"`
	GovernanceScore    *float64  `json:"governance_score,omitempty"`
	CarbonFootprint    *float64  `json:"carbon_footprint,omitempty"` // tCO2e
	SocialImpactScore  *float64  `json:"social_impact_score,omitempty"`
	RatingGrade        string    `json:"rating_grade,omitempty"`
	CalculationDate    time.Time `json:"calculation_date"`
}

// Validate checks the rating against the domain invariants: every sub-score
// in [0,100], carbon footprint in [0,10000], grade within the lattice.
func (r *ESGRating) Validate() error {
	if r == nil {
		return errors.New(errors.ErrCodeRatingInvalid, "rating cannot be nil")
	}
	scores := map[string]*float64{
		"overall_score":       r.OverallScore,
		"environmental_score": r.EnvironmentalScore,
		"social_score":        r.SocialScore,
		"governance_score":    r.GovernanceScore,
		"social_impact_score": r.SocialImpactScore,
	}
	for name, s := range scores {
		if s != nil && (*s < 0 || *s > 100) {
			return errors.New(errors.ErrCodeRatingInvalid, "score out of range [0,100]").WithDetail(name)
		}
	}
	if r.CarbonFootprint != nil && (*r.CarbonFootprint < 0 || *r.CarbonFootprint > MaxCarbonFootprint) {
		return errors.New(errors.ErrCodeRatingInvalid, "carbon footprint out of range [0,10000]")
	}
	if r.RatingGrade != "" {
		if _, ok := validGrades[r.RatingGrade]; !ok {
			return errors.New(errors.ErrCodeRatingInvalid, "unknown rating grade").WithDetail(r.RatingGrade)
		}
	}
	return nil
}

// Company is the durable per-company record.
type Company struct {
	ID                string                 `json:"id"`
	CompanyID         string                 `json:"company_id"`
	Name              string                 `json:"name"`
	Sector            string                 `json:"sector,omitempty"`
	Industry          string                 `json:"industry,omitempty"`
	CurrentRating     *ESGRating             `json:"current_rating,omitempty"`
	AdditionalMetrics map[string]interface{} `json:"additional_metrics,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// New creates a company record with a fresh internal id.
func New(companyID, name, sector string) (*Company, error) {
	if companyID == "" {
		return nil, errors.NewValidation("companyID cannot be empty")
	}
	if name == "" {
		return nil, errors.NewValidation("name cannot be empty")
	}
	now := time.Now().UTC()
	return &Company{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Name:      name,
		Sector:    sector,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate validates the company entity.
func (c *Company) Validate() error {
	if c.CompanyID == "" {
		return errors.NewValidation("companyID cannot be empty")
	}
	if c.Name == "" {
		return errors.NewValidation("name cannot be empty")
	}
	if c.CurrentRating != nil {
		if err := c.CurrentRating.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SetRating replaces the current rating wholesale and bumps UpdatedAt.
func (c *Company) SetRating(r *ESGRating) error {
	if err := r.Validate(); err != nil {
		return err
	}
	c.CurrentRating = r
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// OverallScore returns the company's overall ESG score, or 0 and false when
// no rating or score is attached.
func (c *Company) OverallScore() (float64, bool) {
	if c.CurrentRating == nil || c.CurrentRating.OverallScore == nil {
		return 0, false
	}
	return *c.CurrentRating.OverallScore, true
}

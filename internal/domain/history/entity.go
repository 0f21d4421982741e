// Package history defines the append-only record of historical ESG data
// points used for trend analytics.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecometric/esg-dashboard/pkg/errors"
)

// Data types distinguish what a record snapshots.
const (
	DataTypeESGRating      = "ESG_RATING"
	DataTypeCarbonEmission = "CARBON_EMISSION"
	DataTypeSocialImpact   = "SOCIAL_IMPACT"
	DataTypePortfolioScore = "PORTFOLIO_SCORE"
)

// Data quality markers. Records below QualityVerified are kept but flagged so
// analytics can weight or exclude them.
const (
	QualityVerified  = "VERIFIED"
	QualityReported  = "REPORTED"
	QualityEstimated = "ESTIMATED"
)

var validDataTypes = map[string]struct{}{
	DataTypeESGRating: {}, DataTypeCarbonEmission: {}, DataTypeSocialImpact: {}, DataTypePortfolioScore: {},
}

// Record is one historical data point for an entity (company or portfolio).
type Record struct {
	ID          string                 `json:"id"`
	EntityID    string                 `json:"entity_id"`
	DataType    string                 `json:"data_type"`
	Value       float64                `json:"value"`
	Metrics     map[string]interface{} `json:"metrics,omitempty"`
	DataQuality string                 `json:"data_quality,omitempty"`
	RecordedAt  time.Time              `json:"recorded_at"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NewRecord creates a history record stamped now.
func NewRecord(entityID, dataType string, value float64) (*Record, error) {
	if entityID == "" {
		return nil, errors.NewValidation("entityID cannot be empty")
	}
	if _, ok := validDataTypes[dataType]; !ok {
		return nil, errors.NewValidation("unknown data type: " + dataType)
	}
	now := time.Now().UTC()
	return &Record{
		ID:          uuid.NewString(),
		EntityID:    entityID,
		DataType:    dataType,
		Value:       value,
		DataQuality: QualityReported,
		RecordedAt:  now,
		CreatedAt:   now,
	}, nil
}

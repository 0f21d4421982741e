package portfolio

import (
	"math"

	"github.com/ecometric/esg-dashboard/internal/domain/company"
)

// Skip reasons recorded per excluded holding.
const (
	SkipCompanyUnresolved = "company_unresolved"
	SkipAmountMissing     = "amount_missing"
	SkipAmountNotPositive = "amount_not_positive"
)

// SkippedItem records a holding that was excluded from the weighted roll-up
// and why, so callers can log or surface the degradation.
type SkippedItem struct {
	CompanyID string `json:"company_id"`
	Reason    string `json:"reason"`
}

// round2 rounds half away from zero to two decimal places. All monetary and
// score outputs go through this so repeated computation over the same inputs
// is bit-identical.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeAggregate derives the investment-weighted aggregate for the given
// holdings against the resolved companies, keyed by company id.
//
// Rules:
//   - A holding contributes weight only when its investment amount is present
//     and strictly positive and its company resolved. Anything else is
//     recorded as skipped and dropped from the enriched list; the portfolio
//     degrades rather than failing.
//   - Total investment is the sum of every positive amount, resolved or not,
//     so weights reflect the full invested capital.
//   - Missing sub-scores on a resolved rating contribute zero to their metric
//     while the holding still carries its full weight.
//   - If no holding contributes at all, the zero aggregate with the "N/A"
//     rating is returned and total investment reads zero.
//
// The returned items are enriched copies of the contributing inputs: company
// name, weight, and a point-in-time rating snapshot filled in. The input
// slice is not mutated.
func ComputeAggregate(items []Item, companies map[string]*company.Company) (Aggregate, []Item, []SkippedItem) {
	if len(items) == 0 {
		return ZeroAggregate(), nil, nil
	}

	var skipped []SkippedItem

	var totalInvestment float64
	for _, item := range items {
		if item.InvestmentAmount != nil && *item.InvestmentAmount > 0 {
			totalInvestment += *item.InvestmentAmount
		}
	}

	var (
		enriched       []Item
		weightedESG    float64
		weightedCarbon float64
		weightedSocial float64
	)

	for _, item := range items {
		switch {
		case item.InvestmentAmount == nil:
			skipped = append(skipped, SkippedItem{CompanyID: item.CompanyID, Reason: SkipAmountMissing})
			continue
		case *item.InvestmentAmount <= 0:
			skipped = append(skipped, SkippedItem{CompanyID: item.CompanyID, Reason: SkipAmountNotPositive})
			continue
		}

		c, ok := companies[item.CompanyID]
		if !ok || c == nil {
			skipped = append(skipped, SkippedItem{CompanyID: item.CompanyID, Reason: SkipCompanyUnresolved})
			continue
		}

		weight := *item.InvestmentAmount / totalInvestment
		item.Weight = weight
		item.CompanyName = c.Name
		item.Rating = c.CurrentRating
		enriched = append(enriched, item)

		if r := c.CurrentRating; r != nil {
			weightedESG += weight * deref(r.OverallScore)
			weightedCarbon += weight * deref(r.CarbonFootprint)
			weightedSocial += weight * deref(r.SocialImpactScore)
		}
	}

	if len(enriched) == 0 {
		return ZeroAggregate(), nil, skipped
	}

	// The grade comes off the unrounded accumulator so a score just under a
	// threshold cannot round itself into the higher band.
	agg := Aggregate{
		TotalESGScore:     round2(weightedESG),
		CarbonFootprint:   round2(weightedCarbon),
		SocialImpactScore: round2(weightedSocial),
		AverageRating:     company.GradeFromScore(weightedESG),
		TotalCompanies:    len(enriched),
		TotalInvestment:   round2(totalInvestment),
	}
	return agg, enriched, skipped
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecometric/esg-dashboard/pkg/errors"
)

func TestNew(t *testing.T) {
	p, err := New("PF-1", "Green Fund", "CLIENT-9")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "PF-1", p.PortfolioID)
	assert.Equal(t, "CLIENT-9", p.ClientID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Nil(t, p.Aggregate)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("", "Green Fund", "CLIENT-9")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = New("PF-1", "Green Fund", "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestPortfolio_Validate(t *testing.T) {
	p, err := New("PF-1", "Green Fund", "CLIENT-9")
	require.NoError(t, err)
	assert.NoError(t, p.Validate())

	p.Items = []Item{{CompanyID: "ACME-01", InvestmentAmount: f(100)}}
	assert.NoError(t, p.Validate())

	p.Items = append(p.Items, Item{InvestmentAmount: f(50)})
	assert.Error(t, p.Validate())
}

func TestPortfolio_CompanyIDs(t *testing.T) {
	p := &Portfolio{Items: []Item{
		{CompanyID: "A"},
		{CompanyID: "B"},
		{CompanyID: "A"},
		{CompanyID: ""},
		{CompanyID: "C"},
	}}

	assert.Equal(t, []string{"A", "B", "C"}, p.CompanyIDs())
}

func TestZeroAggregate(t *testing.T) {
	agg := ZeroAggregate()
	assert.Equal(t, "N/A", agg.AverageRating)
	assert.Zero(t, agg.TotalESGScore)
	assert.Zero(t, agg.TotalCompanies)
	assert.Zero(t, agg.TotalInvestment)
}

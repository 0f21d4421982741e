package company

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecometric/esg-dashboard/pkg/errors"
)

func f(v float64) *float64 { return &v }

func TestGradeFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, GradeAAA},
		{90, GradeAAA},
		{89.999, GradeAA},
		{80, GradeAA},
		{70, GradeA},
		{60, GradeBBB},
		{50, GradeBB},
		{40, GradeB},
		{39.999, GradeC},
		{0, GradeC},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFromScore(tt.score), "score %v", tt.score)
	}
}

func TestNew(t *testing.T) {
	c, err := New("ACME-01", "Acme Corp", "Industrials")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "ACME-01", c.CompanyID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Nil(t, c.CurrentRating)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("", "Acme Corp", "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = New("ACME-01", "", "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestESGRating_Validate(t *testing.T) {
	valid := &ESGRating{
		OverallScore:       f(87.5),
		EnvironmentalScore: f(90),
		SocialScore:        f(85),
		GovernanceScore:    f(88),
		CarbonFootprint:    f(120.5),
		SocialImpactScore:  f(80),
		RatingGrade:        GradeAA,
		CalculationDate:    time.Now(),
	}
	assert.NoError(t, valid.Validate())

	// Nil sub-scores are legal during transient update windows.
	assert.NoError(t, (&ESGRating{RatingGrade: GradeC}).Validate())

	var nilRating *ESGRating
	assert.Error(t, nilRating.Validate())

	assert.Error(t, (&ESGRating{OverallScore: f(101)}).Validate())
	assert.Error(t, (&ESGRating{SocialScore: f(-0.1)}).Validate())
	assert.Error(t, (&ESGRating{CarbonFootprint: f(10000.1)}).Validate())
	assert.Error(t, (&ESGRating{CarbonFootprint: f(-1)}).Validate())
	assert.Error(t, (&ESGRating{RatingGrade: "AAAA"}).Validate())

	// Boundary values are inclusive.
	assert.NoError(t, (&ESGRating{OverallScore: f(0)}).Validate())
	assert.NoError(t, (&ESGRating{OverallScore: f(100)}).Validate())
	assert.NoError(t, (&ESGRating{CarbonFootprint: f(MaxCarbonFootprint)}).Validate())
}

func TestSetRating_ReplacesWholeValue(t *testing.T) {
	c, err := New("ACME-01", "Acme Corp", "Industrials")
	require.NoError(t, err)

	first := &ESGRating{OverallScore: f(70), RatingGrade: GradeA}
	require.NoError(t, c.SetRating(first))

	second := &ESGRating{OverallScore: f(95), RatingGrade: GradeAAA}
	require.NoError(t, c.SetRating(second))

	assert.Same(t, second, c.CurrentRating)
	// The replaced value is untouched.
	assert.Equal(t, 70.0, *first.OverallScore)
}

func TestSetRating_Invalid(t *testing.T) {
	c, _ := New("ACME-01", "Acme Corp", "")
	err := c.SetRating(&ESGRating{OverallScore: f(250)})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRatingInvalid))
	assert.Nil(t, c.CurrentRating)
}

func TestOverallScore(t *testing.T) {
	c, _ := New("ACME-01", "Acme Corp", "")

	_, ok := c.OverallScore()
	assert.False(t, ok)

	c.CurrentRating = &ESGRating{}
	_, ok = c.OverallScore()
	assert.False(t, ok)

	c.CurrentRating = &ESGRating{OverallScore: f(66)}
	score, ok := c.OverallScore()
	assert.True(t, ok)
	assert.Equal(t, 66.0, score)
}

func TestCompany_Validate(t *testing.T) {
	c, _ := New("ACME-01", "Acme Corp", "")
	assert.NoError(t, c.Validate())

	c.CurrentRating = &ESGRating{OverallScore: f(120)}
	assert.Error(t, c.Validate())
}

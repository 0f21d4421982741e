package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domaincompany "github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/cache"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/testutil"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

func f64(v float64) *float64 { return &v }

func ratedCompany(id string, score float64) *domaincompany.Company {
	c, _ := domaincompany.New(id, id+" Inc", "Energy")
	_ = c.SetRating(&domaincompany.ESGRating{
		OverallScore:    f64(score),
		RatingGrade:     domaincompany.GradeFromScore(score),
		CalculationDate: time.Now().UTC(),
	})
	return c
}

func newWarmer(t *testing.T, repo *testutil.CompanyRepo, mem *testutil.MemCache, size int) *RankingWarmer {
	t.Helper()
	w, err := NewRankingWarmer(WarmerConfig{
		Repository:   repo,
		RankingIndex: cache.NewRankingIndex(mem, logging.NewNopLogger(), nil),
		Logger:       logging.NewNopLogger(),
		Spec:         "@every 5m",
		Size:         size,
	})
	require.NoError(t, err)
	return w
}

func TestNewRankingWarmer_Validation(t *testing.T) {
	_, err := NewRankingWarmer(WarmerConfig{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	repo := testutil.NewCompanyRepo()
	mem := testutil.NewMemCache()
	_, err = NewRankingWarmer(WarmerConfig{
		Repository:   repo,
		RankingIndex: cache.NewRankingIndex(mem, logging.NewNopLogger(), nil),
		Logger:       logging.NewNopLogger(),
		Spec:         "not a schedule",
		Size:         10,
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestWarmOnce_PopulatesIndex(t *testing.T) {
	repo := testutil.NewCompanyRepo(
		ratedCompany("A-01", 90),
		ratedCompany("B-01", 70),
		ratedCompany("C-01", 50),
	)
	mem := testutil.NewMemCache()
	w := newWarmer(t, repo, mem, 100)

	count, err := w.WarmOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	score, ok := mem.ZSetScore("rankings:esg_scores", "A-01")
	assert.True(t, ok)
	assert.Equal(t, 90.0, score)
}

func TestWarmOnce_RespectsSizeCap(t *testing.T) {
	repo := testutil.NewCompanyRepo(
		ratedCompany("A-01", 90),
		ratedCompany("B-01", 70),
		ratedCompany("C-01", 50),
	)
	mem := testutil.NewMemCache()
	w := newWarmer(t, repo, mem, 2)

	count, err := w.WarmOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, ok := mem.ZSetScore("rankings:esg_scores", "C-01")
	assert.False(t, ok)
}

func TestWarmOnce_EmptyStore(t *testing.T) {
	w := newWarmer(t, testutil.NewCompanyRepo(), testutil.NewMemCache(), 10)

	count, err := w.WarmOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWarmOnce_StoreError(t *testing.T) {
	repo := testutil.NewCompanyRepo()
	repo.FindErr = assert.AnError
	w := newWarmer(t, repo, testutil.NewMemCache(), 10)

	_, err := w.WarmOnce(context.Background())
	assert.Error(t, err)
}

func TestWarmOnce_IndexError(t *testing.T) {
	repo := testutil.NewCompanyRepo(ratedCompany("A-01", 90))
	mem := testutil.NewMemCache()
	w := newWarmer(t, repo, mem, 10)

	mem.FailAll = true
	_, err := w.WarmOnce(context.Background())
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	repo := testutil.NewCompanyRepo(ratedCompany("A-01", 90))
	mem := testutil.NewMemCache()
	w := newWarmer(t, repo, mem, 10)

	require.NoError(t, w.Start())

	// The immediate warm-up runs in the background.
	assert.Eventually(t, func() bool {
		_, ok := mem.ZSetScore("rankings:esg_scores", "A-01")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	w.Stop()
}

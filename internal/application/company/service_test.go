package company

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domaincompany "github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/internal/domain/history"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/cache"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/messaging/kafka"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/testutil"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

func f64(v float64) *float64 { return &v }

func ratedCompany(id, name string, score float64) *domaincompany.Company {
	c, _ := domaincompany.New(id, name, "Energy")
	_ = c.SetRating(&domaincompany.ESGRating{
		OverallScore:      f64(score),
		CarbonFootprint:   f64(100),
		SocialImpactScore: f64(50),
		RatingGrade:       domaincompany.GradeFromScore(score),
		CalculationDate:   time.Now().UTC(),
	})
	return c
}

type fixture struct {
	svc     Service
	repo    *testutil.CompanyRepo
	mem     *testutil.MemCache
	cache   *cache.CompanyCache
	ranking *cache.RankingIndex
	history *testutil.HistoryRepo
	events  *testutil.EventRecorder
}

func newFixture(t *testing.T, seed ...*domaincompany.Company) *fixture {
	t.Helper()
	f := &fixture{
		repo:    testutil.NewCompanyRepo(seed...),
		mem:     testutil.NewMemCache(),
		history: testutil.NewHistoryRepo(),
		events:  testutil.NewEventRecorder(),
	}
	log := logging.NewNopLogger()
	f.cache = cache.NewCompanyCache(f.mem, log, nil)
	f.ranking = cache.NewRankingIndex(f.mem, log, nil)

	svc, err := NewService(ServiceConfig{
		Repository:   f.repo,
		Cache:        f.cache,
		RankingIndex: f.ranking,
		History:      f.history,
		Publisher:    f.events,
		Logger:       log,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewService_RequiresDeps(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestSaveOrUpdate_PersistsAndRefreshesDerivedStores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := ratedCompany("ACME-01", "Acme Corp", 82)

	require.NoError(t, f.svc.SaveOrUpdate(ctx, c))

	stored, err := f.repo.FindByCompanyID(ctx, "ACME-01")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", stored.Name)

	assert.True(t, f.mem.Contains("company:ACME-01"))
	score, ok := f.mem.ZSetScore("rankings:esg_scores", "ACME-01")
	assert.True(t, ok)
	assert.Equal(t, 82.0, score)

	require.Equal(t, []string{kafka.TopicCompanyUpdated}, f.events.Topics())
}

func TestSaveOrUpdate_UnratedCompanySkipsRanking(t *testing.T) {
	f := newFixture(t)
	c, _ := domaincompany.New("NEW-01", "Newco", "Tech")

	require.NoError(t, f.svc.SaveOrUpdate(context.Background(), c))

	_, ok := f.mem.ZSetScore("rankings:esg_scores", "NEW-01")
	assert.False(t, ok)
}

func TestSaveOrUpdate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.SaveOrUpdate(ctx, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	err = f.svc.SaveOrUpdate(ctx, &domaincompany.Company{Name: "no id"})
	assert.Error(t, err)
}

func TestSaveOrUpdate_CacheOutageDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.mem.FailAll = true

	err := f.svc.SaveOrUpdate(context.Background(), ratedCompany("ACME-01", "Acme", 70))
	assert.NoError(t, err)
	assert.Equal(t, 1, f.repo.SaveCalls)
}

func TestGetByCompanyID_CacheHitSkipsStore(t *testing.T) {
	c := ratedCompany("ACME-01", "Acme", 82)
	f := newFixture(t, c)
	ctx := context.Background()

	// First read misses the cache and back-fills it.
	got, err := f.svc.GetByCompanyID(ctx, "ACME-01")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	storeReads := f.repo.FindCalls

	// Second read is served from the cache.
	got, err = f.svc.GetByCompanyID(ctx, "ACME-01")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, storeReads, f.repo.FindCalls)
}

func TestGetByCompanyID_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetByCompanyID(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestGetByCompanyID_CacheOutageFallsBackToStore(t *testing.T) {
	f := newFixture(t, ratedCompany("ACME-01", "Acme", 82))
	f.mem.FailAll = true

	got, err := f.svc.GetByCompanyID(context.Background(), "ACME-01")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
}

func TestBatchLoad_MixesCacheAndStore(t *testing.T) {
	cached := ratedCompany("CACHED-01", "Cached Co", 75)
	stored := ratedCompany("STORED-01", "Stored Co", 65)
	f := newFixture(t, cached, stored)
	ctx := context.Background()

	require.NoError(t, f.cache.Put(ctx, cached))
	f.repo.FindCalls = 0

	result, err := f.svc.BatchLoad(ctx, []string{"CACHED-01", "STORED-01", "GHOST-01"})
	require.NoError(t, err)

	assert.Len(t, result, 2)
	assert.Equal(t, "Cached Co", result["CACHED-01"].Name)
	assert.Equal(t, "Stored Co", result["STORED-01"].Name)
	assert.NotContains(t, result, "GHOST-01")

	// Exactly one store query, for the cache misses only.
	assert.Equal(t, 1, f.repo.FindCalls)
	assert.Equal(t, []string{"STORED-01", "GHOST-01"}, f.repo.LastBatchIDs)

	// The store fetch back-fills the cache.
	assert.True(t, f.mem.Contains("company:STORED-01"))
}

func TestBatchLoad_EmptyIDSet(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.BatchLoad(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestUpdateRating_ReplacesWholeRating(t *testing.T) {
	c := ratedCompany("ACME-01", "Acme", 55)
	f := newFixture(t, c)
	ctx := context.Background()

	updated, err := f.svc.UpdateRating(ctx, "ACME-01", &domaincompany.ESGRating{
		OverallScore: f64(91),
	})
	require.NoError(t, err)

	require.NotNil(t, updated.CurrentRating)
	assert.Equal(t, 91.0, *updated.CurrentRating.OverallScore)
	assert.Equal(t, domaincompany.GradeAAA, updated.CurrentRating.RatingGrade)
	// Whole-value replacement: old sub-scores are gone.
	assert.Nil(t, updated.CurrentRating.CarbonFootprint)
	assert.False(t, updated.CurrentRating.CalculationDate.IsZero())

	score, ok := f.mem.ZSetScore("rankings:esg_scores", "ACME-01")
	assert.True(t, ok)
	assert.Equal(t, 91.0, score)

	assert.Equal(t, []string{kafka.TopicRatingUpdated}, f.events.Topics())
}

func TestUpdateRating_AppendsHistory(t *testing.T) {
	f := newFixture(t, ratedCompany("ACME-01", "Acme", 55))

	_, err := f.svc.UpdateRating(context.Background(), "ACME-01", &domaincompany.ESGRating{
		OverallScore:      f64(80),
		CarbonFootprint:   f64(420),
		SocialImpactScore: f64(61),
	})
	require.NoError(t, err)

	assert.Len(t, f.history.ByType("ACME-01", history.DataTypeESGRating), 1)
	assert.Len(t, f.history.ByType("ACME-01", history.DataTypeCarbonEmission), 1)
	assert.Len(t, f.history.ByType("ACME-01", history.DataTypeSocialImpact), 1)
}

func TestUpdateRating_UnknownCompany(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateRating(context.Background(), "missing", &domaincompany.ESGRating{OverallScore: f64(50)})
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateRating_InvalidRatingRejected(t *testing.T) {
	f := newFixture(t, ratedCompany("ACME-01", "Acme", 55))
	_, err := f.svc.UpdateRating(context.Background(), "ACME-01", &domaincompany.ESGRating{OverallScore: f64(140)})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRatingInvalid))
	assert.Empty(t, f.events.Topics())
}

func TestGetTopRanked_ServedByIndex(t *testing.T) {
	a := ratedCompany("A-01", "Alpha", 90)
	b := ratedCompany("B-01", "Beta", 70)
	f := newFixture(t, a, b)
	ctx := context.Background()

	require.NoError(t, f.ranking.Upsert(ctx, "A-01", 90))
	require.NoError(t, f.ranking.Upsert(ctx, "B-01", 70))

	views, err := f.svc.GetTopRanked(ctx, 10)
	require.NoError(t, err)

	require.Len(t, views, 2)
	assert.Equal(t, 1, views[0].Rank)
	assert.Equal(t, "A-01", views[0].CompanyID)
	assert.Equal(t, "Alpha", views[0].Name)
	assert.Equal(t, 90.0, views[0].Score)
	assert.Equal(t, 2, views[1].Rank)
	assert.Equal(t, "B-01", views[1].CompanyID)
}

func TestGetTopRanked_EmptyIndexFallsBackAndRewarms(t *testing.T) {
	a := ratedCompany("A-01", "Alpha", 90)
	b := ratedCompany("B-01", "Beta", 70)
	f := newFixture(t, a, b)
	ctx := context.Background()

	views, err := f.svc.GetTopRanked(ctx, 10)
	require.NoError(t, err)

	require.Len(t, views, 2)
	assert.Equal(t, "A-01", views[0].CompanyID)
	assert.Equal(t, "B-01", views[1].CompanyID)

	// Fallback re-warmed the index.
	score, ok := f.mem.ZSetScore("rankings:esg_scores", "A-01")
	assert.True(t, ok)
	assert.Equal(t, 90.0, score)
}

func TestGetTopRanked_InvalidLimit(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetTopRanked(context.Background(), 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestDelete_RemovesEverywhere(t *testing.T) {
	c := ratedCompany("ACME-01", "Acme", 82)
	f := newFixture(t, c)
	ctx := context.Background()

	require.NoError(t, f.svc.SaveOrUpdate(ctx, c))
	require.NoError(t, f.svc.Delete(ctx, "ACME-01"))

	_, err := f.repo.FindByCompanyID(ctx, "ACME-01")
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, f.mem.Contains("company:ACME-01"))
	_, ok := f.mem.ZSetScore("rankings:esg_scores", "ACME-01")
	assert.False(t, ok)

	topics := f.events.Topics()
	require.Len(t, topics, 2)
	assert.Equal(t, kafka.TopicCompanyDeleted, topics[1])
}

func TestDelete_UnknownCompany(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Delete(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestListBySector(t *testing.T) {
	energy1 := ratedCompany("A-01", "Alpha", 80)
	energy2 := ratedCompany("B-01", "Beta", 60)
	tech, _ := domaincompany.New("C-01", "Gamma", "Tech")
	f := newFixture(t, energy1, energy2, tech)

	companies, err := f.svc.ListBySector(context.Background(), "Energy")
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "A-01", companies[0].CompanyID)
	assert.Equal(t, "B-01", companies[1].CompanyID)

	_, err = f.svc.ListBySector(context.Background(), "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

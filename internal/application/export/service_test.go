package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcompany "github.com/ecometric/esg-dashboard/internal/application/company"
	domaincompany "github.com/ecometric/esg-dashboard/internal/domain/company"
	domainportfolio "github.com/ecometric/esg-dashboard/internal/domain/portfolio"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/messaging/kafka"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/storage/minio"
	"github.com/ecometric/esg-dashboard/internal/testutil"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

func f64(v float64) *float64 { return &v }

type fakeStore struct {
	uploads    []*minio.UploadRequest
	uploadErr  error
	presignErr error
}

func (s *fakeStore) Upload(ctx context.Context, req *minio.UploadRequest) (*minio.UploadResult, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	s.uploads = append(s.uploads, req)
	return &minio.UploadResult{
		Bucket:     "esg-exports",
		ObjectKey:  req.ObjectKey,
		Size:       int64(len(req.Data)),
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (s *fakeStore) Exists(ctx context.Context, objectKey string) (bool, error) { return true, nil }
func (s *fakeStore) Delete(ctx context.Context, objectKey string) error         { return nil }

func (s *fakeStore) PresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://storage.local/esg-exports/" + objectKey + "?sig=abc", nil
}

type fakeCompanies struct {
	ranked []appcompany.RankedCompanyView
	err    error
}

func (f *fakeCompanies) SaveOrUpdate(ctx context.Context, c *domaincompany.Company) error { return nil }
func (f *fakeCompanies) GetByCompanyID(ctx context.Context, id string) (*domaincompany.Company, error) {
	return nil, nil
}
func (f *fakeCompanies) BatchLoad(ctx context.Context, ids []string) (map[string]*domaincompany.Company, error) {
	return nil, nil
}
func (f *fakeCompanies) UpdateRating(ctx context.Context, id string, r *domaincompany.ESGRating) (*domaincompany.Company, error) {
	return nil, nil
}
func (f *fakeCompanies) ListBySector(ctx context.Context, sector string) ([]*domaincompany.Company, error) {
	return nil, nil
}
func (f *fakeCompanies) GetTopRanked(ctx context.Context, n int) ([]appcompany.RankedCompanyView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ranked, nil
}
func (f *fakeCompanies) Delete(ctx context.Context, id string) error { return nil }

func seedPortfolio(t *testing.T, repo *testutil.PortfolioRepo) *domainportfolio.Portfolio {
	t.Helper()
	p, err := domainportfolio.New("PF-1", "Green Growth", "CLIENT-9")
	require.NoError(t, err)
	p.Items = []domainportfolio.Item{
		{
			CompanyID:        "A-01",
			CompanyName:      "Alpha",
			InvestmentAmount: f64(300000),
			Weight:           0.3,
			Rating:           &domaincompany.ESGRating{OverallScore: f64(80), RatingGrade: "AA"},
		},
		{
			CompanyID:        "B-01",
			CompanyName:      "Beta",
			InvestmentAmount: f64(700000),
			Weight:           0.7,
			Rating:           &domaincompany.ESGRating{OverallScore: f64(60), RatingGrade: "BBB"},
		},
	}
	p.Aggregate = &domainportfolio.Aggregate{
		TotalESGScore:   66,
		AverageRating:   "BBB",
		TotalCompanies:  2,
		TotalInvestment: 1000000,
	}
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

type fixture struct {
	svc       Service
	repo      *testutil.PortfolioRepo
	store     *fakeStore
	companies *fakeCompanies
	events    *testutil.EventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      testutil.NewPortfolioRepo(),
		store:     &fakeStore{},
		companies: &fakeCompanies{},
		events:    testutil.NewEventRecorder(),
	}
	svc, err := NewService(ServiceConfig{
		Portfolios: f.repo,
		Companies:  f.companies,
		Store:      f.store,
		Publisher:  f.events,
		Logger:     logging.NewNopLogger(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewService_RequiresDeps(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestExportPortfolioCSV(t *testing.T) {
	f := newFixture(t)
	seedPortfolio(t, f.repo)

	result, err := f.svc.ExportPortfolioCSV(context.Background(), "PF-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.ObjectKey, "exports/portfolios/PF-1/"))
	assert.True(t, strings.HasSuffix(result.ObjectKey, ".csv"))
	assert.Contains(t, result.DownloadURL, result.ObjectKey)
	assert.Equal(t, "csv", result.Format)
	assert.Positive(t, result.Size)

	require.Len(t, f.store.uploads, 1)
	csv := string(f.store.uploads[0].Data)
	assert.Contains(t, csv, "company_id,company_name,investment_amount,weight,overall_score,rating_grade")
	assert.Contains(t, csv, "A-01,Alpha,300000,0.3,80,AA")
	assert.Contains(t, csv, "B-01,Beta,700000,0.7,60,BBB")
	assert.Contains(t, csv, "total_esg_score,66")
	assert.Contains(t, csv, "average_rating,BBB")
	assert.Contains(t, csv, "total_investment,1000000")

	topics := f.events.Topics()
	require.Len(t, topics, 1)
	assert.Equal(t, kafka.TopicExportCompleted, topics[0])
}

func TestExportPortfolioCSV_UnknownPortfolio(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ExportPortfolioCSV(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, f.store.uploads)
}

func TestExportPortfolioCSV_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ExportPortfolioCSV(context.Background(), "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestExportPortfolioCSV_UploadFailure(t *testing.T) {
	f := newFixture(t)
	seedPortfolio(t, f.repo)
	f.store.uploadErr = errors.New(errors.ErrCodeExportFailed, "upload failed")

	_, err := f.svc.ExportPortfolioCSV(context.Background(), "PF-1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeExportFailed))
	assert.Empty(t, f.events.Topics())
}

func TestExportPortfolioCSV_PresignFailureStillReturnsKey(t *testing.T) {
	f := newFixture(t)
	seedPortfolio(t, f.repo)
	f.store.presignErr = assert.AnError

	result, err := f.svc.ExportPortfolioCSV(context.Background(), "PF-1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.ObjectKey)
	assert.Empty(t, result.DownloadURL)
}

func TestExportRankingsCSV(t *testing.T) {
	f := newFixture(t)
	f.companies.ranked = []appcompany.RankedCompanyView{
		{Rank: 1, CompanyID: "A-01", Name: "Alpha", Sector: "Energy", Score: 90, RatingGrade: "AAA"},
		{Rank: 2, CompanyID: "B-01", Name: "Beta", Sector: "Tech", Score: 70, RatingGrade: "A"},
	}

	result, err := f.svc.ExportRankingsCSV(context.Background(), 10)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.ObjectKey, "exports/rankings/top-10/"))

	csv := string(f.store.uploads[0].Data)
	assert.Contains(t, csv, "rank,company_id,name,sector,score,rating_grade")
	assert.Contains(t, csv, "1,A-01,Alpha,Energy,90,AAA")
	assert.Contains(t, csv, "2,B-01,Beta,Tech,70,A")
}

func TestExportRankingsCSV_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ExportRankingsCSV(context.Background(), 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestExportRankingsCSV_RankingFailure(t *testing.T) {
	f := newFixture(t)
	f.companies.err = assert.AnError

	_, err := f.svc.ExportRankingsCSV(context.Background(), 5)
	assert.Error(t, err)
	assert.Empty(t, f.store.uploads)
}

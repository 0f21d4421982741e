package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/ecometric/esg-dashboard/internal/domain/portfolio"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

var portfolioCols = []string{
	"id", "portfolio_id", "name", "client_id", "client_name",
	"items", "aggregate_scores", "created_at", "updated_at",
}

type PortfolioRepoTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *sql.DB
	repo portfolio.Repository
}

func (s *PortfolioRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.NoError(err)
	conn := postgres.NewConnectionWithDB(s.db, logging.NewNopLogger())
	s.repo = NewPortfolioRepository(conn, logging.NewNopLogger())
}

func (s *PortfolioRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *PortfolioRepoTestSuite) TestSave() {
	p, err := portfolio.New("PF-1", "Green Fund", "CLIENT-9")
	s.Require().NoError(err)
	amount := 300000.0
	p.Items = []portfolio.Item{{CompanyID: "ACME-01", InvestmentAmount: &amount}}
	agg := portfolio.ZeroAggregate()
	p.Aggregate = &agg

	s.mock.ExpectExec(`INSERT INTO portfolios`).
		WithArgs(p.ID, "PF-1", "Green Fund", "CLIENT-9", "",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.Save(context.Background(), p))
}

func (s *PortfolioRepoTestSuite) TestSave_NoAggregateStoresNull() {
	p, err := portfolio.New("PF-2", "", "CLIENT-9")
	s.Require().NoError(err)

	s.mock.ExpectExec(`INSERT INTO portfolios`).
		WithArgs(p.ID, "PF-2", "", "CLIENT-9", "",
			sqlmock.AnyArg(), nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.Save(context.Background(), p))
}

func (s *PortfolioRepoTestSuite) TestFindByPortfolioID() {
	now := time.Now()
	items := `[{"company_id":"ACME-01","investment_amount":300000,"weight":0.3}]`
	agg := `{"total_esg_score":66,"average_rating":"BBB","total_companies":2,"total_investment":1000000}`
	s.mock.ExpectQuery(`SELECT (.+) FROM portfolios WHERE portfolio_id = \$1`).
		WithArgs("PF-1").
		WillReturnRows(sqlmock.NewRows(portfolioCols).
			AddRow("u1", "PF-1", "Green Fund", "CLIENT-9", "Nordwind Capital", []byte(items), []byte(agg), now, now))

	p, err := s.repo.FindByPortfolioID(context.Background(), "PF-1")
	s.Require().NoError(err)
	s.Equal("Green Fund", p.Name)
	s.Equal("Nordwind Capital", p.ClientName)
	s.Require().Len(p.Items, 1)
	s.Equal(0.3, p.Items[0].Weight)
	s.Require().NotNil(p.Aggregate)
	s.Equal(66.0, p.Aggregate.TotalESGScore)
	s.Equal("BBB", p.Aggregate.AverageRating)
}

func (s *PortfolioRepoTestSuite) TestFindByPortfolioID_NotFound() {
	s.mock.ExpectQuery(`SELECT (.+) FROM portfolios WHERE portfolio_id = \$1`).
		WithArgs("GHOST").
		WillReturnError(sql.ErrNoRows)

	_, err := s.repo.FindByPortfolioID(context.Background(), "GHOST")
	s.True(errors.IsNotFound(err))
	s.Equal(errors.ErrCodePortfolioNotFound, errors.GetCode(err))
}

func (s *PortfolioRepoTestSuite) TestFindByClientID() {
	now := time.Now()
	s.mock.ExpectQuery(`SELECT (.+) FROM portfolios\s+WHERE client_id = \$1`).
		WithArgs("CLIENT-9", 20, 0).
		WillReturnRows(sqlmock.NewRows(portfolioCols).
			AddRow("u1", "PF-1", "Green Fund", "CLIENT-9", nil, []byte(`[]`), nil, now, now).
			AddRow("u2", "PF-2", "Brown Fund", "CLIENT-9", nil, []byte(`[]`), nil, now, now))

	portfolios, err := s.repo.FindByClientID(context.Background(), "CLIENT-9", 0, 20)
	s.Require().NoError(err)
	s.Len(portfolios, 2)
}

func (s *PortfolioRepoTestSuite) TestDelete_NotFound() {
	s.mock.ExpectExec(`DELETE FROM portfolios WHERE portfolio_id = \$1`).
		WithArgs("GHOST").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.repo.Delete(context.Background(), "GHOST")
	s.True(errors.IsNotFound(err))
}

func TestPortfolioRepoTestSuite(t *testing.T) {
	suite.Run(t, new(PortfolioRepoTestSuite))
}

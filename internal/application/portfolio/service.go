// Package portfolio provides the portfolio application service: CRUD plus
// the investment-weighted aggregate computed on every write.
package portfolio

import (
	"context"
	"time"

	appcompany "github.com/ecometric/esg-dashboard/internal/application/company"
	domaincompany "github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/internal/domain/history"
	domainportfolio "github.com/ecometric/esg-dashboard/internal/domain/portfolio"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/messaging/kafka"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/prometheus"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

const eventSource = "esg-dashboard"

// Default page size for client listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SaveInput carries one portfolio write. Items come straight from the client
// payload; amounts may be missing.
type SaveInput struct {
	PortfolioID string                 `json:"portfolio_id"`
	Name        string                 `json:"portfolio_name"`
	ClientID    string                 `json:"client_id"`
	ClientName  string                 `json:"client_name,omitempty"`
	Items       []domainportfolio.Item `json:"items"`
}

// ListInput pages a client's portfolios.
type ListInput struct {
	ClientID string
	Page     int
	PageSize int
}

// ListResult is one page of portfolios.
type ListResult struct {
	Portfolios []*domainportfolio.Portfolio `json:"portfolios"`
	Page       int                          `json:"page"`
	PageSize   int                          `json:"page_size"`
}

// CompanyResolver resolves holdings to company records. Satisfied by the
// company application service.
type CompanyResolver interface {
	BatchLoad(ctx context.Context, companyIDs []string) (map[string]*domaincompany.Company, error)
}

// Publisher is the event-publishing dependency. Satisfied by kafka.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, env *kafka.EventEnvelope) error
}

// Service is the application surface for portfolios.
type Service interface {
	// Save creates or replaces the portfolio and recomputes its aggregate
	// from the current company ratings.
	Save(ctx context.Context, input *SaveInput) (*domainportfolio.Portfolio, error)

	Get(ctx context.Context, portfolioID string) (*domainportfolio.Portfolio, error)
	ListByClient(ctx context.Context, input *ListInput) (*ListResult, error)

	// Recompute re-derives the aggregate without changing the holdings.
	Recompute(ctx context.Context, portfolioID string) (*domainportfolio.Portfolio, error)

	Delete(ctx context.Context, portfolioID string) error
}

// ServiceConfig holds the dependencies for constructing the service.
type ServiceConfig struct {
	Repository domainportfolio.Repository
	Companies  CompanyResolver
	History    history.Repository
	Publisher  Publisher
	Metrics    *prometheus.AppMetrics
	Logger     logging.Logger
}

type serviceImpl struct {
	repo      domainportfolio.Repository
	companies CompanyResolver
	history   history.Repository
	pub       Publisher
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewService constructs a portfolio Service.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Repository == nil {
		return nil, errors.NewValidation("portfolio service requires Repository")
	}
	if cfg.Companies == nil {
		return nil, errors.NewValidation("portfolio service requires CompanyResolver")
	}
	if cfg.Logger == nil {
		return nil, errors.NewValidation("portfolio service requires Logger")
	}

	return &serviceImpl{
		repo:      cfg.Repository,
		companies: cfg.Companies,
		history:   cfg.History,
		pub:       cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}, nil
}

var _ CompanyResolver = (appcompany.Service)(nil)

func (s *serviceImpl) Save(ctx context.Context, input *SaveInput) (*domainportfolio.Portfolio, error) {
	if input == nil {
		return nil, errors.NewValidation("input cannot be nil")
	}

	p, err := domainportfolio.New(input.PortfolioID, input.Name, input.ClientID)
	if err != nil {
		return nil, err
	}
	p.ClientName = input.ClientName
	p.Items = input.Items
	if err := p.Validate(); err != nil {
		return nil, err
	}

	// Keep the original creation time on updates.
	if existing, findErr := s.repo.FindByPortfolioID(ctx, input.PortfolioID); findErr == nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	} else if !errors.IsNotFound(findErr) {
		return nil, findErr
	}

	if err := s.aggregate(ctx, p); err != nil {
		return nil, err
	}

	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.recordScoreHistory(ctx, p)
	s.publishUpdated(ctx, p)
	return p, nil
}

func (s *serviceImpl) Get(ctx context.Context, portfolioID string) (*domainportfolio.Portfolio, error) {
	if portfolioID == "" {
		return nil, errors.NewValidation("portfolioID cannot be empty")
	}
	return s.repo.FindByPortfolioID(ctx, portfolioID)
}

func (s *serviceImpl) ListByClient(ctx context.Context, input *ListInput) (*ListResult, error) {
	if input == nil || input.ClientID == "" {
		return nil, errors.NewValidation("clientID cannot be empty")
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	size := input.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	portfolios, err := s.repo.FindByClientID(ctx, input.ClientID, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	return &ListResult{Portfolios: portfolios, Page: page, PageSize: size}, nil
}

func (s *serviceImpl) Recompute(ctx context.Context, portfolioID string) (*domainportfolio.Portfolio, error) {
	if portfolioID == "" {
		return nil, errors.NewValidation("portfolioID cannot be empty")
	}

	p, err := s.repo.FindByPortfolioID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	if err := s.aggregate(ctx, p); err != nil {
		return nil, err
	}

	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.recordScoreHistory(ctx, p)
	s.publishUpdated(ctx, p)
	return p, nil
}

func (s *serviceImpl) Delete(ctx context.Context, portfolioID string) error {
	if portfolioID == "" {
		return errors.NewValidation("portfolioID cannot be empty")
	}

	if err := s.repo.Delete(ctx, portfolioID); err != nil {
		return err
	}

	s.publish(ctx, kafka.TopicPortfolioDeleted, "portfolio.deleted", kafka.PortfolioUpdatedPayload{
		PortfolioID: portfolioID,
		UpdatedAt:   time.Now().UTC(),
	})
	return nil
}

// aggregate resolves the holdings and derives the weighted roll-up onto p.
func (s *serviceImpl) aggregate(ctx context.Context, p *domainportfolio.Portfolio) error {
	start := time.Now()

	// The batch loader rejects empty id sets; a portfolio with no holdings
	// degrades to the zero aggregate without a lookup.
	companies := map[string]*domaincompany.Company{}
	if ids := p.CompanyIDs(); len(ids) > 0 {
		loaded, err := s.companies.BatchLoad(ctx, ids)
		if err != nil {
			if s.metrics != nil {
				prometheus.RecordAggregation(s.metrics, time.Since(start), err)
			}
			return errors.Wrap(err, errors.ErrCodeAggregationFailed, "failed to resolve holdings")
		}
		companies = loaded
	}

	agg, enriched, skipped := domainportfolio.ComputeAggregate(p.Items, companies)
	p.Items = enriched
	p.Aggregate = &agg

	if s.metrics != nil {
		prometheus.RecordAggregation(s.metrics, time.Since(start), nil)
		for _, sk := range skipped {
			s.metrics.AggregationSkipTotal.WithLabelValues(sk.Reason).Inc()
		}
	}
	for _, sk := range skipped {
		s.logger.Debug("Holding excluded from aggregation",
			logging.String("portfolio_id", p.PortfolioID),
			logging.String("company_id", sk.CompanyID),
			logging.String("reason", sk.Reason))
	}
	return nil
}

func (s *serviceImpl) recordScoreHistory(ctx context.Context, p *domainportfolio.Portfolio) {
	if s.history == nil || p.Aggregate == nil || p.Aggregate.TotalCompanies == 0 {
		return
	}
	rec, err := history.NewRecord(p.PortfolioID, history.DataTypePortfolioScore, p.Aggregate.TotalESGScore)
	if err != nil {
		return
	}
	rec.Metrics = map[string]interface{}{
		"carbon_footprint":    p.Aggregate.CarbonFootprint,
		"social_impact_score": p.Aggregate.SocialImpactScore,
		"total_companies":     p.Aggregate.TotalCompanies,
	}
	if err := s.history.Save(ctx, rec); err != nil {
		s.logger.Warn("History record write failed",
			logging.String("portfolio_id", p.PortfolioID), logging.Err(err))
	}
}

func (s *serviceImpl) publishUpdated(ctx context.Context, p *domainportfolio.Portfolio) {
	payload := kafka.PortfolioUpdatedPayload{
		PortfolioID: p.PortfolioID,
		ClientID:    p.ClientID,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Aggregate != nil {
		payload.TotalESGScore = p.Aggregate.TotalESGScore
		payload.AverageRating = p.Aggregate.AverageRating
		payload.TotalCompanies = p.Aggregate.TotalCompanies
		payload.TotalInvestment = p.Aggregate.TotalInvestment
	}
	s.publish(ctx, kafka.TopicPortfolioUpdated, "portfolio.updated", payload)
}

func (s *serviceImpl) publish(ctx context.Context, topic, eventType string, payload interface{}) {
	if s.pub == nil {
		return
	}
	env, err := kafka.NewEventEnvelope(eventType, eventSource, payload)
	if err != nil {
		s.logger.Warn("Event envelope build failed", logging.String("topic", topic), logging.Err(err))
		return
	}
	err = s.pub.PublishEvent(ctx, topic, env)
	if s.metrics != nil {
		prometheus.RecordEventPublish(s.metrics, topic, err)
	}
	if err != nil {
		s.logger.Warn("Event publish failed", logging.String("topic", topic), logging.Err(err))
	}
}

// Package company provides the company application service: write-through
// persistence, the read-through snapshot cache, rating updates, and the
// ranked top-N query with its store fallback.
package company

import (
	"context"
	"time"

	domaincompany "github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/internal/domain/history"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/cache"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/messaging/kafka"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/prometheus"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

// eventSource tags every published envelope.
const eventSource = "esg-dashboard"

// RankedCompanyView is one row of the top-N ranking, resolved to a name.
type RankedCompanyView struct {
	Rank        int     `json:"rank"`
	CompanyID   string  `json:"company_id"`
	Name        string  `json:"name,omitempty"`
	Sector      string  `json:"sector,omitempty"`
	Score       float64 `json:"score"`
	RatingGrade string  `json:"rating_grade,omitempty"`
}

// Service is the application surface for companies.
type Service interface {
	SaveOrUpdate(ctx context.Context, c *domaincompany.Company) error
	GetByCompanyID(ctx context.Context, companyID string) (*domaincompany.Company, error)

	// BatchLoad resolves many companies at once: cache first, then one
	// batched store query for the misses, back-filling the cache. Unknown
	// ids are absent from the result.
	BatchLoad(ctx context.Context, companyIDs []string) (map[string]*domaincompany.Company, error)

	UpdateRating(ctx context.Context, companyID string, rating *domaincompany.ESGRating) (*domaincompany.Company, error)

	// ListBySector returns every company in a sector, straight from the
	// store. Sector listings are unbounded scans the cache cannot answer.
	ListBySector(ctx context.Context, sector string) ([]*domaincompany.Company, error)

	// GetTopRanked answers from the ranking index and falls back to the
	// store when the index is empty or unavailable, re-warming it
	// best-effort.
	GetTopRanked(ctx context.Context, n int) ([]RankedCompanyView, error)

	Delete(ctx context.Context, companyID string) error
}

// Publisher is the event-publishing dependency. Satisfied by kafka.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, env *kafka.EventEnvelope) error
}

// ServiceConfig holds the dependencies for constructing the service.
type ServiceConfig struct {
	Repository   domaincompany.Repository
	Cache        *cache.CompanyCache
	RankingIndex *cache.RankingIndex
	History      history.Repository
	Publisher    Publisher
	Metrics      *prometheus.AppMetrics
	Logger       logging.Logger
}

type serviceImpl struct {
	repo    domaincompany.Repository
	cache   *cache.CompanyCache
	ranking *cache.RankingIndex
	history history.Repository
	pub     Publisher
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewService constructs a company Service.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Repository == nil {
		return nil, errors.NewValidation("company service requires Repository")
	}
	if cfg.Cache == nil {
		return nil, errors.NewValidation("company service requires Cache")
	}
	if cfg.RankingIndex == nil {
		return nil, errors.NewValidation("company service requires RankingIndex")
	}
	if cfg.Logger == nil {
		return nil, errors.NewValidation("company service requires Logger")
	}

	return &serviceImpl{
		repo:    cfg.Repository,
		cache:   cfg.Cache,
		ranking: cfg.RankingIndex,
		history: cfg.History,
		pub:     cfg.Publisher,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}, nil
}

// SaveOrUpdate persists the company and refreshes the derived stores. The
// store write is the only step that can fail the call; cache, index, and
// event propagation degrade to warnings.
func (s *serviceImpl) SaveOrUpdate(ctx context.Context, c *domaincompany.Company) error {
	if c == nil {
		return errors.NewValidation("company cannot be nil")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, c); err != nil {
		return err
	}

	s.refreshDerived(ctx, c)
	s.publish(ctx, kafka.TopicCompanyUpdated, "company.updated", kafka.CompanyUpdatedPayload{
		CompanyID: c.CompanyID,
		Name:      c.Name,
		Sector:    c.Sector,
		UpdatedAt: c.UpdatedAt,
	})
	return nil
}

// GetByCompanyID reads through the snapshot cache. Cache transport errors
// degrade to a store read.
func (s *serviceImpl) GetByCompanyID(ctx context.Context, companyID string) (*domaincompany.Company, error) {
	if companyID == "" {
		return nil, errors.NewValidation("companyID cannot be empty")
	}

	snapshot, err := s.cache.Get(ctx, companyID)
	if err != nil {
		s.logger.Warn("Company cache read failed, falling back to store",
			logging.String("company_id", companyID), logging.Err(err))
	} else if snapshot != nil {
		return snapshot, nil
	}

	c, err := s.repo.FindByCompanyID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if putErr := s.cache.Put(ctx, c); putErr != nil {
		s.logger.Warn("Company cache back-fill failed",
			logging.String("company_id", companyID), logging.Err(putErr))
	}
	return c, nil
}

func (s *serviceImpl) BatchLoad(ctx context.Context, companyIDs []string) (map[string]*domaincompany.Company, error) {
	if len(companyIDs) == 0 {
		return nil, errors.InvalidParam("companyIDs cannot be empty")
	}

	resolved, err := s.cache.GetMany(ctx, companyIDs)
	if err != nil {
		s.logger.Warn("Company cache batch read failed, loading all from store", logging.Err(err))
		resolved = make(map[string]*domaincompany.Company, len(companyIDs))
	}

	var missing []string
	for _, id := range companyIDs {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	loaded, err := s.repo.FindByCompanyIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, c := range loaded {
		resolved[c.CompanyID] = c
	}

	if len(loaded) > 0 {
		if putErr := s.cache.PutMany(ctx, loaded); putErr != nil {
			s.logger.Warn("Company cache batch back-fill failed", logging.Err(putErr))
		}
	}
	return resolved, nil
}

// UpdateRating replaces the company's rating wholesale, appends the history
// data points, and refreshes the derived stores.
func (s *serviceImpl) UpdateRating(ctx context.Context, companyID string, rating *domaincompany.ESGRating) (*domaincompany.Company, error) {
	if companyID == "" {
		return nil, errors.NewValidation("companyID cannot be empty")
	}

	c, err := s.repo.FindByCompanyID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if rating != nil && rating.CalculationDate.IsZero() {
		rating.CalculationDate = time.Now().UTC()
	}
	if rating != nil && rating.RatingGrade == "" && rating.OverallScore != nil {
		rating.RatingGrade = domaincompany.GradeFromScore(*rating.OverallScore)
	}
	if err := c.SetRating(rating); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.refreshDerived(ctx, c)
	s.recordRatingHistory(ctx, c)
	s.publish(ctx, kafka.TopicRatingUpdated, "rating.updated", kafka.RatingUpdatedPayload{
		CompanyID:       c.CompanyID,
		OverallScore:    rating.OverallScore,
		RatingGrade:     rating.RatingGrade,
		CalculationDate: rating.CalculationDate,
	})
	return c, nil
}

func (s *serviceImpl) GetTopRanked(ctx context.Context, n int) ([]RankedCompanyView, error) {
	if n <= 0 {
		return nil, errors.NewValidation("limit must be positive")
	}

	ranked, err := s.ranking.TopN(ctx, n)
	if err != nil {
		s.logger.Warn("Ranking index unavailable, falling back to store", logging.Err(err))
	}
	if err == nil && len(ranked) > 0 {
		return s.resolveRanked(ctx, ranked)
	}

	if s.metrics != nil {
		s.metrics.RankingFallbackTotal.WithLabelValues().Inc()
	}

	top, err := s.repo.FindTopByScore(ctx, n)
	if err != nil {
		return nil, err
	}

	views := make([]RankedCompanyView, 0, len(top))
	warm := make(map[string]float64, len(top))
	for i, c := range top {
		score, ok := c.OverallScore()
		if !ok {
			continue
		}
		view := RankedCompanyView{
			Rank:      i + 1,
			CompanyID: c.CompanyID,
			Name:      c.Name,
			Sector:    c.Sector,
			Score:     score,
		}
		if c.CurrentRating != nil {
			view.RatingGrade = c.CurrentRating.RatingGrade
		}
		views = append(views, view)
		warm[c.CompanyID] = score
	}

	if len(warm) > 0 {
		if warmErr := s.ranking.UpsertBatch(ctx, warm); warmErr != nil {
			s.logger.Warn("Ranking index re-warm failed", logging.Err(warmErr))
		}
	}
	return views, nil
}

func (s *serviceImpl) ListBySector(ctx context.Context, sector string) ([]*domaincompany.Company, error) {
	if sector == "" {
		return nil, errors.NewValidation("sector cannot be empty")
	}
	return s.repo.FindBySector(ctx, sector)
}

func (s *serviceImpl) Delete(ctx context.Context, companyID string) error {
	if companyID == "" {
		return errors.NewValidation("companyID cannot be empty")
	}

	if err := s.repo.Delete(ctx, companyID); err != nil {
		return err
	}

	if err := s.cache.Evict(ctx, companyID); err != nil {
		s.logger.Warn("Company cache evict failed",
			logging.String("company_id", companyID), logging.Err(err))
	}
	if err := s.ranking.Remove(ctx, companyID); err != nil {
		s.logger.Warn("Ranking index removal failed",
			logging.String("company_id", companyID), logging.Err(err))
	}

	s.publish(ctx, kafka.TopicCompanyDeleted, "company.deleted", kafka.CompanyUpdatedPayload{
		CompanyID: companyID,
		UpdatedAt: time.Now().UTC(),
	})
	return nil
}

// resolveRanked turns index entries into views using the snapshot cache.
func (s *serviceImpl) resolveRanked(ctx context.Context, ranked []cache.RankedCompany) ([]RankedCompanyView, error) {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.CompanyID
	}
	companies, err := s.BatchLoad(ctx, ids)
	if err != nil {
		s.logger.Warn("Ranked company resolution failed", logging.Err(err))
		companies = map[string]*domaincompany.Company{}
	}

	views := make([]RankedCompanyView, len(ranked))
	for i, r := range ranked {
		view := RankedCompanyView{Rank: r.Rank, CompanyID: r.CompanyID, Score: r.Score}
		if c, ok := companies[r.CompanyID]; ok {
			view.Name = c.Name
			view.Sector = c.Sector
			if c.CurrentRating != nil {
				view.RatingGrade = c.CurrentRating.RatingGrade
			}
		}
		views[i] = view
	}
	return views, nil
}

// refreshDerived pushes the company into the cache and ranking index,
// best-effort.
func (s *serviceImpl) refreshDerived(ctx context.Context, c *domaincompany.Company) {
	if err := s.cache.Put(ctx, c); err != nil {
		s.logger.Warn("Company cache refresh failed",
			logging.String("company_id", c.CompanyID), logging.Err(err))
	}
	if score, ok := c.OverallScore(); ok {
		if err := s.ranking.Upsert(ctx, c.CompanyID, score); err != nil {
			s.logger.Warn("Ranking index upsert failed",
				logging.String("company_id", c.CompanyID), logging.Err(err))
		}
	}
}

// recordRatingHistory appends one data point per present metric.
func (s *serviceImpl) recordRatingHistory(ctx context.Context, c *domaincompany.Company) {
	if s.history == nil || c.CurrentRating == nil {
		return
	}
	r := c.CurrentRating

	points := []struct {
		dataType string
		value    *float64
	}{
		{history.DataTypeESGRating, r.OverallScore},
		{history.DataTypeCarbonEmission, r.CarbonFootprint},
		{history.DataTypeSocialImpact, r.SocialImpactScore},
	}
	for _, p := range points {
		if p.value == nil {
			continue
		}
		rec, err := history.NewRecord(c.CompanyID, p.dataType, *p.value)
		if err != nil {
			continue
		}
		rec.RecordedAt = r.CalculationDate
		if err := s.history.Save(ctx, rec); err != nil {
			s.logger.Warn("History record write failed",
				logging.String("company_id", c.CompanyID),
				logging.String("data_type", p.dataType), logging.Err(err))
		}
	}
}

// publish wraps the payload and sends it, logging failures instead of
// propagating them.
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

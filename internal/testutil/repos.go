package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/internal/domain/history"
	"github.com/ecometric/esg-dashboard/internal/domain/portfolio"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/messaging/kafka"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

// CompanyRepo is an in-memory company.Repository.
type CompanyRepo struct {
	mu        sync.Mutex
	companies map[string]*company.Company

	SaveErr error
	FindErr error

	SaveCalls int
	FindCalls int

	// LastBatchIDs holds the ids of the most recent FindByCompanyIDs query.
	LastBatchIDs []string
}

func NewCompanyRepo(seed ...*company.Company) *CompanyRepo {
	r := &CompanyRepo{companies: make(map[string]*company.Company)}
	for _, c := range seed {
		r.companies[c.CompanyID] = c
	}
	return r
}

var _ company.Repository = (*CompanyRepo)(nil)

func (r *CompanyRepo) Save(ctx context.Context, c *company.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SaveCalls++
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.companies[c.CompanyID] = c
	return nil
}

func (r *CompanyRepo) FindByCompanyID(ctx context.Context, companyID string) (*company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindCalls++
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	c, ok := r.companies[companyID]
	if !ok {
		return nil, errors.New(errors.ErrCodeCompanyNotFound, "company not found").WithDetail(companyID)
	}
	return c, nil
}

func (r *CompanyRepo) FindByCompanyIDs(ctx context.Context, companyIDs []string) ([]*company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindCalls++
	r.LastBatchIDs = append([]string(nil), companyIDs...)
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	var out []*company.Company
	for _, id := range companyIDs {
		if c, ok := r.companies[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *CompanyRepo) FindBySector(ctx context.Context, sector string) ([]*company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*company.Company
	for _, c := range r.companies {
		if c.Sector == sector {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyID < out[j].CompanyID })
	return out, nil
}

func (r *CompanyRepo) FindTopByScore(ctx context.Context, limit int) ([]*company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	var rated []*company.Company
	for _, c := range r.companies {
		if _, ok := c.OverallScore(); ok {
			rated = append(rated, c)
		}
	}
	sort.Slice(rated, func(i, j int) bool {
		si, _ := rated[i].OverallScore()
		sj, _ := rated[j].OverallScore()
		if si != sj {
			return si > sj
		}
		return rated[i].CompanyID < rated[j].CompanyID
	})
	if limit < len(rated) {
		rated = rated[:limit]
	}
	return rated, nil
}

func (r *CompanyRepo) Delete(ctx context.Context, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.companies[companyID]; !ok {
		return errors.New(errors.ErrCodeCompanyNotFound, "company not found").WithDetail(companyID)
	}
	delete(r.companies, companyID)
	return nil
}

// PortfolioRepo is an in-memory portfolio.Repository.
type PortfolioRepo struct {
	mu         sync.Mutex
	portfolios map[string]*portfolio.Portfolio

	SaveErr error

	SaveCalls int
}

func NewPortfolioRepo(seed ...*portfolio.Portfolio) *PortfolioRepo {
	r := &PortfolioRepo{portfolios: make(map[string]*portfolio.Portfolio)}
	for _, p := range seed {
		r.portfolios[p.PortfolioID] = p
	}
	return r
}

var _ portfolio.Repository = (*PortfolioRepo)(nil)

func (r *PortfolioRepo) Save(ctx context.Context, p *portfolio.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SaveCalls++
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.portfolios[p.PortfolioID] = p
	return nil
}

func (r *PortfolioRepo) FindByPortfolioID(ctx context.Context, portfolioID string) (*portfolio.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.portfolios[portfolioID]
	if !ok {
		return nil, errors.New(errors.ErrCodePortfolioNotFound, "portfolio not found").WithDetail(portfolioID)
	}
	return p, nil
}

func (r *PortfolioRepo) FindByClientID(ctx context.Context, clientID string, offset, limit int) ([]*portfolio.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*portfolio.Portfolio
	for _, p := range r.portfolios {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *PortfolioRepo) Delete(ctx context.Context, portfolioID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.portfolios[portfolioID]; !ok {
		return errors.New(errors.ErrCodePortfolioNotFound, "portfolio not found").WithDetail(portfolioID)
	}
	delete(r.portfolios, portfolioID)
	return nil
}

// HistoryRepo is an in-memory history.Repository.
type HistoryRepo struct {
	mu      sync.Mutex
	Records []*history.Record

	SaveErr error
}

func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{}
}

var _ history.Repository = (*HistoryRepo)(nil)

func (r *HistoryRepo) Save(ctx context.Context, rec *history.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.Records = append(r.Records, rec)
	return nil
}

func (r *HistoryRepo) FindByEntity(ctx context.Context, entityID, dataType string, from, to time.Time) ([]*history.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*history.Record
	for _, rec := range r.Records {
		if rec.EntityID != entityID || rec.DataType != dataType {
			continue
		}
		if rec.RecordedAt.Before(from) || rec.RecordedAt.After(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

// ByType returns the stored records of one data type for one entity.
func (r *HistoryRepo) ByType(entityID, dataType string) []*history.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*history.Record
	for _, rec := range r.Records {
		if rec.EntityID == entityID && rec.DataType == dataType {
			out = append(out, rec)
		}
	}
	return out
}

// EventRecorder captures published event envelopes.
type EventRecorder struct {
	mu     sync.Mutex
	Events []RecordedEvent

	Err error
}

// RecordedEvent is one captured publish.
type RecordedEvent struct {
	Topic    string
	Envelope *kafka.EventEnvelope
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (p *EventRecorder) PublishEvent(ctx context.Context, topic string, env *kafka.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, RecordedEvent{Topic: topic, Envelope: env})
	return nil
}

// Topics returns the topics published to, in order.
func (p *EventRecorder) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Events))
	for i, e := range p.Events {
		out[i] = e.Topic
	}
	return out
}

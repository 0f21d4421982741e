// Package export renders dashboard data to CSV, stores the files in object
// storage, and hands back presigned download links.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	appcompany "github.com/ecometric/esg-dashboard/internal/application/company"
	domainportfolio "github.com/ecometric/esg-dashboard/internal/domain/portfolio"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/messaging/kafka"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/prometheus"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/storage/minio"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

const (
	eventSource = "esg-dashboard"
	formatCSV   = "csv"
)

// Result describes a stored export.
type Result struct {
	ObjectKey   string    `json:"object_key"`
	DownloadURL string    `json:"download_url"`
	Size        int64     `json:"size"`
	Format      string    `json:"format"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Publisher is the event-publishing dependency. Satisfied by kafka.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, env *kafka.EventEnvelope) error
}

// Service is the export surface.
type Service interface {
	// ExportPortfolioCSV renders the portfolio's holdings and aggregate to
	// CSV and stores it.
	ExportPortfolioCSV(ctx context.Context, portfolioID string) (*Result, error)

	// ExportRankingsCSV renders the current top-N ranking to CSV and stores
	// it.
	ExportRankingsCSV(ctx context.Context, limit int) (*Result, error)
}

// ServiceConfig holds the dependencies for constructing the service.
type ServiceConfig struct {
	Portfolios domainportfolio.Repository
	Companies  appcompany.Service
	Store      minio.ExportStore
	Publisher  Publisher
	Metrics    *prometheus.AppMetrics
	Logger     logging.Logger
}

type serviceImpl struct {
	portfolios domainportfolio.Repository
	companies  appcompany.Service
	store      minio.ExportStore
	pub        Publisher
	metrics    *prometheus.AppMetrics
	logger     logging.Logger
}

// NewService constructs an export Service.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Portfolios == nil {
		return nil, errors.NewValidation("export service requires portfolio Repository")
	}
	if cfg.Companies == nil {
		return nil, errors.NewValidation("export service requires company Service")
	}
	if cfg.Store == nil {
		return nil, errors.NewValidation("export service requires ExportStore")
	}
	if cfg.Logger == nil {
		return nil, errors.NewValidation("export service requires Logger")
	}

	return &serviceImpl{
		portfolios: cfg.Portfolios,
		companies:  cfg.Companies,
		store:      cfg.Store,
		pub:        cfg.Publisher,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}, nil
}

func (s *serviceImpl) ExportPortfolioCSV(ctx context.Context, portfolioID string) (*Result, error) {
	if portfolioID == "" {
		return nil, errors.NewValidation("portfolioID cannot be empty")
	}
	start := time.Now()

	p, err := s.portfolios.FindByPortfolioID(ctx, portfolioID)
	if err != nil {
		s.recordExport(start, err)
		return nil, err
	}

	data, err := renderPortfolioCSV(p)
	if err != nil {
		s.recordExport(start, err)
		return nil, err
	}

	result, err := s.storeAndPresign(ctx, "portfolios", portfolioID, data)
	s.recordExport(start, err)
	return result, err
}

func (s *serviceImpl) ExportRankingsCSV(ctx context.Context, limit int) (*Result, error) {
	if limit <= 0 {
		return nil, errors.NewValidation("limit must be positive")
	}
	start := time.Now()

	ranked, err := s.companies.GetTopRanked(ctx, limit)
	if err != nil {
		s.recordExport(start, err)
		return nil, err
	}

	data, err := renderRankingsCSV(ranked)
	if err != nil {
		s.recordExport(start, err)
		return nil, err
	}

	result, err := s.storeAndPresign(ctx, "rankings", fmt.Sprintf("top-%d", limit), data)
	s.recordExport(start, err)
	return result, err
}

func (s *serviceImpl) storeAndPresign(ctx context.Context, kind, entityID string, data []byte) (*Result, error) {
	generatedAt := time.Now().UTC()
	objectKey := minio.ExportObjectKey(kind, entityID, generatedAt)

	uploaded, err := s.store.Upload(ctx, &minio.UploadRequest{
		ObjectKey:   objectKey,
		Data:        data,
		ContentType: minio.ContentTypeCSV,
		Metadata:    map[string]string{"entity_id": entityID, "kind": kind},
	})
	if err != nil {
		return nil, err
	}

	url, err := s.store.PresignedDownloadURL(ctx, objectKey, 0)
	if err != nil {
		// The object landed; hand back the key even without a link.
		s.logger.Warn("Presign failed for stored export",
			logging.String("object_key", objectKey), logging.Err(err))
		url = ""
	}

	result := &Result{
		ObjectKey:   objectKey,
		DownloadURL: url,
		Size:        uploaded.Size,
		Format:      formatCSV,
		GeneratedAt: generatedAt,
	}

	s.publishCompleted(ctx, result)
	return result, nil
}

func (s *serviceImpl) publishCompleted(ctx context.Context, r *Result) {
	if s.pub == nil {
		return
	}
	env, err := kafka.NewEventEnvelope("export.completed", eventSource, kafka.ExportCompletedPayload{
		ObjectKey:   r.ObjectKey,
		Format:      r.Format,
		DownloadURL: r.DownloadURL,
		GeneratedAt: r.GeneratedAt,
	})
	if err != nil {
		s.logger.Warn("Event envelope build failed", logging.Err(err))
		return
	}
	err = s.pub.PublishEvent(ctx, kafka.TopicExportCompleted, env)
	if s.metrics != nil {
		prometheus.RecordEventPublish(s.metrics, kafka.TopicExportCompleted, err)
	}
	if err != nil {
		s.logger.Warn("Event publish failed",
			logging.String("topic", kafka.TopicExportCompleted), logging.Err(err))
	}
}

func (s *serviceImpl) recordExport(start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	s.metrics.ExportsTotal.WithLabelValues(formatCSV, status).Inc()
	s.metrics.ExportDuration.WithLabelValues(formatCSV).Observe(time.Since(start).Seconds())
}

// renderPortfolioCSV writes one row per holding followed by a summary block.
func renderPortfolioCSV(p *domainportfolio.Portfolio) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"company_id", "company_name", "investment_amount", "weight", "overall_score", "rating_grade"}
	if err := w.Write(header); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "csv write failed")
	}

	for _, item := range p.Items {
		row := []string{
			item.CompanyID,
			item.CompanyName,
			formatAmount(item.InvestmentAmount),
			formatFloat(item.Weight),
			"",
			"",
		}
		if item.Rating != nil {
			if item.Rating.OverallScore != nil {
				row[4] = formatFloat(*item.Rating.OverallScore)
			}
			row[5] = item.Rating.RatingGrade
		}
		if err := w.Write(row); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "csv write failed")
		}
	}

	if agg := p.Aggregate; agg != nil {
		summary := [][]string{
			{},
			{"total_esg_score", formatFloat(agg.TotalESGScore)},
			{"average_rating", agg.AverageRating},
			{"carbon_footprint", formatFloat(agg.CarbonFootprint)},
			{"social_impact_score", formatFloat(agg.SocialImpactScore)},
			{"total_companies", strconv.Itoa(agg.TotalCompanies)},
			{"total_investment", formatFloat(agg.TotalInvestment)},
		}
		for _, row := range summary {
			if err := w.Write(row); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "csv write failed")
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "csv flush failed")
	}
	return buf.Bytes(), nil
}

func renderRankingsCSV(ranked []appcompany.RankedCompanyView) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"rank", "company_id", "name", "sector", "score", "rating_grade"}); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "csv write failed")
	}
	for _, r := range ranked {
		row := []string{
			strconv.Itoa(r.Rank),
			r.CompanyID,
			r.Name,
			r.Sector,
			formatFloat(r.Score),
			r.RatingGrade,
		}
		if err := w.Write(row); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "csv write failed")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "csv flush failed")
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

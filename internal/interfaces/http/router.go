// Package http wires the REST API: router assembly, middleware, and the
// server lifecycle.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appanalytics "github.com/ecometric/esg-dashboard/internal/application/analytics"
	appcompany "github.com/ecometric/esg-dashboard/internal/application/company"
	appexport "github.com/ecometric/esg-dashboard/internal/application/export"
	appportfolio "github.com/ecometric/esg-dashboard/internal/application/portfolio"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/prometheus"
	"github.com/ecometric/esg-dashboard/internal/interfaces/http/handlers"
	"github.com/ecometric/esg-dashboard/internal/interfaces/http/middleware"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

// RouterConfig aggregates everything the router mounts.
type RouterConfig struct {
	Companies  appcompany.Service
	Portfolios appportfolio.Service
	Analytics  appanalytics.Service
	Exports    appexport.Service

	// HealthChecks maps component names to readiness probes.
	HealthChecks map[string]handlers.CheckFunc

	Metrics *prometheus.AppMetrics

	// MetricsHandler serves GET /metrics; usually the collector's handler.
	MetricsHandler http.Handler

	Logger logging.Logger

	// Mode is the gin mode: debug, release, or test.
	Mode string
}

// NewRouter assembles the gin engine: recovery, request id, logging, and
// metrics middleware on every route, health and metrics endpoints at the
// root, and the resource handlers under /api/v1.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Companies == nil {
		return nil, errors.NewValidation("router requires company Service")
	}
	if cfg.Portfolios == nil {
		return nil, errors.NewValidation("router requires portfolio Service")
	}
	if cfg.Analytics == nil {
		return nil, errors.NewValidation("router requires analytics Service")
	}
	if cfg.Exports == nil {
		return nil, errors.NewValidation("router requires export Service")
	}
	if cfg.Logger == nil {
		return nil, errors.NewValidation("router requires Logger")
	}

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(cfg.Logger),
		middleware.Metrics(cfg.Metrics),
	)

	handlers.NewHealthHandler(cfg.HealthChecks, cfg.Metrics, cfg.Logger).Register(engine)
	if cfg.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	v1 := engine.Group("/api/v1")
	handlers.NewCompanyHandler(cfg.Companies).Register(v1)
	handlers.NewRankingHandler(cfg.Companies).Register(v1)
	handlers.NewPortfolioHandler(cfg.Portfolios).Register(v1)
	handlers.NewAnalyticsHandler(cfg.Analytics).Register(v1)
	handlers.NewExportHandler(cfg.Exports).Register(v1)

	return engine, nil
}

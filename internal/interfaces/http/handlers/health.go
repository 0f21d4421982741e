package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/prometheus"
)

// checkTimeout bounds each readiness probe.
const checkTimeout = 5 * time.Second

// CheckFunc probes one dependency. A nil error means the dependency is up.
type CheckFunc func(ctx context.Context) error

// HealthHandler serves the liveness and readiness endpoints. Readiness runs
// one probe per registered dependency and reports per-component status.
type HealthHandler struct {
	checks  map[string]CheckFunc
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewHealthHandler constructs a HealthHandler. checks maps a component name
// (postgres, redis, minio) to its probe.
func NewHealthHandler(checks map[string]CheckFunc, metrics *prometheus.AppMetrics, logger logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HealthHandler{checks: checks, metrics: metrics, logger: logger}
}

// Register mounts the health routes on the root router.
func (h *HealthHandler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.liveness)
	r.GET("/readyz", h.readiness)
}

func (h *HealthHandler) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *HealthHandler) readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	healthy := true
	components := make(map[string]componentStatus, len(h.checks))
	for name, check := range h.checks {
		status := componentStatus{Status: "up"}
		if err := check(ctx); err != nil {
			healthy = false
			status = componentStatus{Status: "down", Error: err.Error()}
			h.logger.Warn("Readiness check failed",
				logging.String("component", name), logging.Err(err))
		}
		h.recordStatus(name, status.Status == "up")
		components[name] = status
	}

	code := http.StatusOK
	overall := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(code, gin.H{"status": overall, "components": components})
}

func (h *HealthHandler) recordStatus(component string, up bool) {
	if h.metrics == nil {
		return
	}
	v := 0.0
	if up {
		v = 1.0
	}
	h.metrics.HealthCheckStatus.WithLabelValues(component).Set(v)
}

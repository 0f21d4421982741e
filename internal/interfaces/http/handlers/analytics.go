package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appanalytics "github.com/ecometric/esg-dashboard/internal/application/analytics"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

// AnalyticsHandler serves sector statistics and historical trends.
type AnalyticsHandler struct {
	svc appanalytics.Service
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(svc appanalytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// Register mounts the analytics routes on rg.
func (h *AnalyticsHandler) Register(rg *gin.RouterGroup) {
	analytics := rg.Group("/analytics")
	analytics.GET("/sectors", h.sectors)
	analytics.GET("/trend", h.trend)
}

func (h *AnalyticsHandler) sectors(c *gin.Context) {
	stats, err := h.svc.SectorStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sectors": stats})
}

func (h *AnalyticsHandler) trend(c *gin.Context) {
	entityID := c.Query("entity_id")
	dataType := c.Query("data_type")

	from, ok := timeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to")
	if !ok {
		return
	}

	result, err := h.svc.Trend(c.Request.Context(), entityID, dataType, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// timeQuery parses an RFC 3339 query parameter; absent means the zero time.
func timeQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondError(c, errors.InvalidParam("query parameter "+name+" must be RFC 3339"))
		return time.Time{}, false
	}
	return t, true
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appexport "github.com/ecometric/esg-dashboard/internal/application/export"
)

// ExportHandler triggers CSV exports and hands back download links.
type ExportHandler struct {
	svc appexport.Service
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(svc appexport.Service) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// Register mounts the export routes on rg.
func (h *ExportHandler) Register(rg *gin.RouterGroup) {
	exports := rg.Group("/exports")
	exports.POST("/portfolios/:portfolioID", h.portfolio)
	exports.POST("/rankings", h.rankings)
}

func (h *ExportHandler) portfolio(c *gin.Context) {
	result, err := h.svc.ExportPortfolioCSV(c.Request.Context(), c.Param("portfolioID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExportHandler) rankings(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultRankingLimit)
	if !ok {
		return
	}

	result, err := h.svc.ExportRankingsCSV(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

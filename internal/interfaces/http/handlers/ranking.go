package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appcompany "github.com/ecometric/esg-dashboard/internal/application/company"
)

// defaultRankingLimit bounds /rankings when the client does not ask for a size.
const defaultRankingLimit = 10

// RankingHandler serves the ESG score ranking.
type RankingHandler struct {
	svc appcompany.Service
}

// NewRankingHandler constructs a RankingHandler.
func NewRankingHandler(svc appcompany.Service) *RankingHandler {
	return &RankingHandler{svc: svc}
}

// Register mounts the ranking routes on rg.
func (h *RankingHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/rankings", h.top)
}

type rankingResponse struct {
	Limit    int                            `json:"limit"`
	Rankings []appcompany.RankedCompanyView `json:"rankings"`
}

func (h *RankingHandler) top(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultRankingLimit)
	if !ok {
		return
	}

	ranked, err := h.svc.GetTopRanked(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if ranked == nil {
		ranked = []appcompany.RankedCompanyView{}
	}
	c.JSON(http.StatusOK, rankingResponse{Limit: limit, Rankings: ranked})
}

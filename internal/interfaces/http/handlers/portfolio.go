package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appportfolio "github.com/ecometric/esg-dashboard/internal/application/portfolio"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

// PortfolioHandler serves the portfolio resource.
type PortfolioHandler struct {
	svc appportfolio.Service
}

// NewPortfolioHandler constructs a PortfolioHandler.
func NewPortfolioHandler(svc appportfolio.Service) *PortfolioHandler {
	return &PortfolioHandler{svc: svc}
}

// Register mounts the portfolio routes on rg.
func (h *PortfolioHandler) Register(rg *gin.RouterGroup) {
	portfolios := rg.Group("/portfolios")
	portfolios.POST("", h.save)
	portfolios.GET("", h.listByClient)
	portfolios.GET("/:portfolioID", h.get)
	portfolios.POST("/:portfolioID/recompute", h.recompute)
	portfolios.DELETE("/:portfolioID", h.delete)
}

func (h *PortfolioHandler) save(c *gin.Context) {
	var input appportfolio.SaveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.svc.Save(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PortfolioHandler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("portfolioID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PortfolioHandler) listByClient(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		respondError(c, errors.InvalidParam("query parameter client_id is required"))
		return
	}
	page, ok := intQuery(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := intQuery(c, "page_size", appportfolio.DefaultPageSize)
	if !ok {
		return
	}

	result, err := h.svc.ListByClient(c.Request.Context(), &appportfolio.ListInput{
		ClientID: clientID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PortfolioHandler) recompute(c *gin.Context) {
	p, err := h.svc.Recompute(c.Request.Context(), c.Param("portfolioID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PortfolioHandler) delete(c *gin.Context) {
	id := c.Param("portfolioID")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deletedResponse(id))
}

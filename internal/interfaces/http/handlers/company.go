package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appcompany "github.com/ecometric/esg-dashboard/internal/application/company"
	domaincompany "github.com/ecometric/esg-dashboard/internal/domain/company"
)

// CompanyHandler serves the company resource.
type CompanyHandler struct {
	svc appcompany.Service
}

// NewCompanyHandler constructs a CompanyHandler.
func NewCompanyHandler(svc appcompany.Service) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// Register mounts the company routes on rg.
func (h *CompanyHandler) Register(rg *gin.RouterGroup) {
	companies := rg.Group("/companies")
	companies.POST("", h.save)
	companies.GET("", h.listBySector)
	companies.POST("/batch", h.batchGet)
	companies.GET("/:companyID", h.get)
	companies.PUT("/:companyID/rating", h.updateRating)
	companies.DELETE("/:companyID", h.delete)
}

type saveCompanyRequest struct {
	CompanyID         string                   `json:"company_id"`
	Name              string                   `json:"name"`
	Sector            string                   `json:"sector"`
	Industry          string                   `json:"industry"`
	CurrentRating     *domaincompany.ESGRating `json:"current_rating"`
	AdditionalMetrics map[string]interface{}   `json:"additional_metrics"`
}

func (h *CompanyHandler) save(c *gin.Context) {
	var req saveCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	company, err := domaincompany.New(req.CompanyID, req.Name, req.Sector)
	if err != nil {
		respondError(c, err)
		return
	}
	company.Industry = req.Industry
	company.AdditionalMetrics = req.AdditionalMetrics
	if req.CurrentRating != nil {
		if err := company.SetRating(req.CurrentRating); err != nil {
			respondError(c, err)
			return
		}
	}

	if err := h.svc.SaveOrUpdate(c.Request.Context(), company); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) get(c *gin.Context) {
	company, err := h.svc.GetByCompanyID(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

type batchGetRequest struct {
	CompanyIDs []string `json:"company_ids"`
}

type batchGetResponse struct {
	Companies map[string]*domaincompany.Company `json:"companies"`
	Missing   []string                          `json:"missing,omitempty"`
}

func (h *CompanyHandler) batchGet(c *gin.Context) {
	var req batchGetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	companies, err := h.svc.BatchLoad(c.Request.Context(), req.CompanyIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := batchGetResponse{Companies: companies}
	for _, id := range req.CompanyIDs {
		if _, ok := companies[id]; !ok {
			resp.Missing = append(resp.Missing, id)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CompanyHandler) updateRating(c *gin.Context) {
	var rating domaincompany.ESGRating
	if err := c.ShouldBindJSON(&rating); err != nil {
		respondBindError(c, err)
		return
	}

	company, err := h.svc.UpdateRating(c.Request.Context(), c.Param("companyID"), &rating)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) listBySector(c *gin.Context) {
	companies, err := h.svc.ListBySector(c.Request.Context(), c.Query("sector"))
	if err != nil {
		respondError(c, err)
		return
	}
	if companies == nil {
		companies = []*domaincompany.Company{}
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

func (h *CompanyHandler) delete(c *gin.Context) {
	id := c.Param("companyID")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deletedResponse(id))
}

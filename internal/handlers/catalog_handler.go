package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-assessment-service/internal/services"
	"github.com/SAP-F-2025/lms-assessment-service/internal/utils"
)

type CatalogHandler struct {
	BaseHandler
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService, logger utils.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler:    NewBaseHandler(logger),
		catalogService: catalogService,
	}
}

// ListAssessments godoc
// @Summary List assessments available to the learner
// @Description Published assessments of the learner's active enrollments, with the learner's attempt summary
// @Tags assessments
// @Produce json
// @Param batch_id query int false "Batch ID"
// @Param status query string false "Schedule status" Enums(upcoming, active, expired)
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.CatalogResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /assessments [get]
func (h *CatalogHandler) ListAssessments(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var query services.ListAssessmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Listing assessments", "batch_id", query.BatchID, "status", query.Status)

	resp, err := h.catalogService.ListAssessments(c.Request.Context(), userID, &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

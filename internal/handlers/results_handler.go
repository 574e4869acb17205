package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-assessment-service/internal/services"
	"github.com/SAP-F-2025/lms-assessment-service/internal/utils"
)

type ResultsHandler struct {
	BaseHandler
	resultsService services.ResultsService
	reportService  services.ReportService
}

func NewResultsHandler(resultsService services.ResultsService, reportService services.ReportService, logger utils.Logger) *ResultsHandler {
	return &ResultsHandler{
		BaseHandler:    NewBaseHandler(logger),
		resultsService: resultsService,
		reportService:  reportService,
	}
}

// GetResults returns the per-question breakdown of a completed attempt
// @Summary Get attempt results
// @Tags results
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResults
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/results [get]
func (h *ResultsHandler) GetResults(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting attempt results", "attempt_id", attemptID)

	results, err := h.resultsService.GetResults(c.Request.Context(), userID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ExportAttemptResults downloads the learner's results as a workbook
// @Summary Export attempt results
// @Tags results
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Attempt ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/results/export [get]
func (h *ResultsHandler) ExportAttemptResults(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting attempt results", "attempt_id", attemptID)

	file, err := h.reportService.ExportAttemptResults(c.Request.Context(), userID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendFile(c, file)
}

// ExportAssessmentResults downloads every completed attempt of an assessment
// @Summary Export assessment results (staff)
// @Tags results
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Assessment ID"
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /staff/assessments/{id}/results/export [get]
func (h *ResultsHandler) ExportAssessmentResults(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	h.LogRequest(c, "Exporting assessment results", "assessment_id", assessmentID, "role", h.getUserRole(c))

	file, err := h.reportService.ExportAssessmentResults(c.Request.Context(), assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendFile(c, file)
}

func (h *ResultsHandler) sendFile(c *gin.Context, file *services.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

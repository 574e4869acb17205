package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-assessment-service/internal/services"
	"github.com/SAP-F-2025/lms-assessment-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt starts a new assessment attempt
// @Summary Start assessment attempt
// @Description Opens an attempt and returns the questions without correct answers
// @Tags attempts
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 201 {object} services.StartAttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /assessments/{id}/attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting assessment attempt", "assessment_id", assessmentID)

	resp, err := h.attemptService.Start(c.Request.Context(), userID, assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// SubmitAttempt grades and finalizes an attempt. Payload rules are checked by
// the attempt service.
// @Summary Submit assessment attempt
// @Description Submits every answer of an attempt at once. Omitted questions are unanswered.
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answers body services.SubmitAnswersRequest true "Answers"
// @Success 200 {object} services.SubmissionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Submitting assessment attempt", "attempt_id", attemptID, "answers", len(req.Answers))

	result, err := h.attemptService.Submit(c.Request.Context(), userID, attemptID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

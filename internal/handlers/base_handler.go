package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/services"
	"github.com/SAP-F-2025/lms-assessment-service/internal/utils"
)

// ===== RESPONSES =====

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries the helpers shared by every handler
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the request scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "method", c.Request.Method, "path", c.FullPath())
	if userID, ok := c.Get("user_id"); ok {
		args = append(args, "user_id", userID)
	}
	utils.LoggerFromContext(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err, "path", c.FullPath())
	utils.LoggerFromContext(c, h.logger).Error(msg, args...)
}

// parseIDParam reads a positive numeric path parameter. On failure it writes
// a 400 and returns 0.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: c.Param(name),
		})
		return 0
	}
	return uint(id)
}

// getUserID returns the authenticated user id. On failure it writes a 401.
func (h *BaseHandler) getUserID(c *gin.Context) (string, bool) {
	userID, err := GetUserIDFromContext(c)
	if err != nil || userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return "", false
	}
	return userID, true
}

func (h *BaseHandler) getUserRole(c *gin.Context) models.UserRole {
	role, _ := GetUserRoleFromContext(c)
	return role
}

// handleServiceError maps service errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var notEligible *services.NotEligibleError
	if errors.As(err, &notEligible) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Not eligible to start this assessment",
			Details: gin.H{"reasons": notEligible.Reasons},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAttemptTimeExpired):
		c.JSON(http.StatusGone, ErrorResponse{Message: "Attempt time limit has expired"})
	case errors.Is(err, services.ErrAssessmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Assessment not found"})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Attempt not found"})
	case errors.Is(err, services.ErrAttemptNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt is not in progress"})
	case errors.Is(err, services.ErrAttemptNotCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt is not completed"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-assessment-service/internal/config"
	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/lms-assessment-service/internal/services"
	"github.com/SAP-F-2025/lms-assessment-service/internal/utils"
)

const healthCheckTimeout = 3 * time.Second

type HandlerManager struct {
	catalogHandler *CatalogHandler
	attemptHandler *AttemptHandler
	resultsHandler *ResultsHandler
	serviceManager services.ServiceManager
	authMiddleware gin.HandlerFunc
	requireStaff   gin.HandlerFunc
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	auth := NewCasdoorAuthMiddleware(casdoorConfig, userRepo, logger)
	return newHandlerManager(serviceManager, logger, auth)
}

func newHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	auth *CasdoorAuthMiddleware,
) *HandlerManager {
	return &HandlerManager{
		catalogHandler: NewCatalogHandler(serviceManager.Catalog(), logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), logger),
		resultsHandler: NewResultsHandler(serviceManager.Results(), serviceManager.Report(), logger),
		serviceManager: serviceManager,
		authMiddleware: auth.AuthMiddleware(),
		requireStaff:   auth.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware)
	{
		assessments := v1.Group("/assessments")
		{
			assessments.GET("", hm.catalogHandler.ListAssessments)
			assessments.POST("/:id/attempts", hm.attemptHandler.StartAttempt)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/results", hm.resultsHandler.GetResults)
			attempts.GET("/:id/results/export", hm.resultsHandler.ExportAttemptResults)
		}

		// Teachers and Admins only
		staff := v1.Group("/staff")
		staff.Use(hm.requireStaff)
		{
			staff.GET("/assessments/:id/results/export", hm.resultsHandler.ExportAssessmentResults)
		}
	}
}

// HealthCheck pings the database and the cache
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "assessment-service",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "assessment-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

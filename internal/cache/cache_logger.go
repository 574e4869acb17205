package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and logs instead of failing.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and logs instead of failing.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

func AssessmentDetailsKey(assessmentID uint) string {
	return fmt.Sprintf("details:%d", assessmentID)
}

func CatalogKey(userID string, parts ...interface{}) string {
	key := userID
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// InvalidateCatalog drops every cached catalog page of a learner.
func InvalidateCatalog(ctx context.Context, cm *CacheManager, userID string) {
	SafeInvalidatePattern(ctx, cm.Catalog, userID+":*")
}

// InvalidateAssessment drops a cached assessment definition.
func InvalidateAssessment(ctx context.Context, cm *CacheManager, assessmentID uint) {
	SafeDelete(ctx, cm.Assessment, AssessmentDetailsKey(assessmentID))
}

package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-assessment-service/internal/cache"
)

// Repository aggregates every repository of the assessment service
type Repository interface {
	Assessment() AssessmentRepository
	Batch() BatchRepository
	Enrollment() EnrollmentRepository
	Attempt() AttemptRepository
	Response() ResponseRepository

	// User domain (read-only, backed by Casdoor)
	User() UserRepository

	// Shared cache; helpers are no-ops when Redis is not configured
	CacheManager() *cache.CacheManager

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}

// IsDuplicateKeyError reports a unique constraint violation. Requires
// gorm.Config.TranslateError.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

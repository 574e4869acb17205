package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CatalogFilters struct {
	BatchIDs []uint

	// Status filters on the window derived at Now
	Status *models.ScheduleStatus
	Now    time.Time

	Limit  int
	Offset int
}

// ===== SHARED RESULT STRUCTS =====

// FinalizeAttempt carries the values written by the status-guarded finalize update.
type FinalizeAttempt struct {
	SubmittedAt      time.Time
	Score            int
	TotalMarks       int
	Percentage       float64
	Passed           bool
	PassingMarks     *int
	TotalQuestions   int
	CorrectAnswers   int
	TimeTakenMinutes int
}

// ===== REPOSITORY INTERFACES =====

// AssessmentRepository is read-only from the learner side; Create exists for seeding.
type AssessmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)

	// GetWithQuestions returns the assessment with ordered questions and ordered options.
	GetWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)

	// ListPublishedByBatches returns a page of published assessments of the given
	// batches with questions loaded, plus the total number of matches.
	ListPublishedByBatches(ctx context.Context, tx *gorm.DB, filters CatalogFilters) ([]*models.Assessment, int64, error)
}

type BatchRepository interface {
	Create(ctx context.Context, tx *gorm.DB, batch *models.Batch) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]*models.Batch, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetActiveBatchIDs(ctx context.Context, tx *gorm.DB, userID string, now time.Time) ([]uint, error)
	IsActivelyEnrolled(ctx context.Context, tx *gorm.DB, userID string, batchID uint, now time.Time) (bool, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.AssessmentAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentAttempt, error)

	CountByStudent(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (int64, error)
	GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.AssessmentAttempt, error)
	GetByStudentAndAssessments(ctx context.Context, tx *gorm.DB, studentID string, assessmentIDs []uint) ([]*models.AssessmentAttempt, error)
	GetCompletedByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentAttempt, error)

	// Finalize moves an in_progress attempt to completed. It reports false
	// when the attempt was no longer in progress.
	Finalize(ctx context.Context, tx *gorm.DB, id uint, result FinalizeAttempt) (bool, error)

	// ExpireOverdue marks in_progress attempts whose expires_at is before now as expired.
	ExpireOverdue(ctx context.Context, tx *gorm.DB, now time.Time) ([]*models.AssessmentAttempt, error)
}

type ResponseRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, responses []*models.Response) error
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.Response, error)
	CountByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (int64, error)
}

// UserRepository resolves identities owned by Casdoor. Read only.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}

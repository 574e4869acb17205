package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

// Create inserts a new attempt. Unique index violations (second in-progress
// attempt, duplicate attempt number) are returned as gorm.ErrDuplicatedKey.
func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.AssessmentAttempt) error {
	if err := a.helpers.getDB(tx).WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// Attempts are never cached: their status is the concurrency guard.
func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentAttempt, error) {
	var attempt models.AssessmentAttempt
	if err := a.helpers.getDB(tx).WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) CountByStudent(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (int64, error) {
	count, err := a.helpers.CountAttemptsByStudent(ctx, tx, assessmentID, studentID)
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}

func (a *AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.AssessmentAttempt, error) {
	var attempt models.AssessmentAttempt
	err := a.helpers.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND assessment_id = ? AND status = ?", studentID, assessmentID, models.AttemptInProgress).
		First(&attempt).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get active attempt: %w", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByStudentAndAssessments(ctx context.Context, tx *gorm.DB, studentID string, assessmentIDs []uint) ([]*models.AssessmentAttempt, error) {
	if len(assessmentIDs) == 0 {
		return []*models.AssessmentAttempt{}, nil
	}

	var attempts []*models.AssessmentAttempt
	err := a.helpers.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND assessment_id IN ?", studentID, assessmentIDs).
		Order("assessment_id ASC, attempt_number ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts by student: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) GetCompletedByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentAttempt, error) {
	var attempts []*models.AssessmentAttempt
	err := a.helpers.getDB(tx).WithContext(ctx).
		Where("assessment_id = ? AND status = ?", assessmentID, models.AttemptCompleted).
		Order("student_id ASC, attempt_number ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get completed attempts: %w", err)
	}
	return attempts, nil
}

// Finalize is a conditional update guarded on status = in_progress. The affected
// row count tells the caller whether it won the transition.
func (a *AttemptPostgreSQL) Finalize(ctx context.Context, tx *gorm.DB, id uint, result repositories.FinalizeAttempt) (bool, error) {
	res := a.helpers.getDB(tx).WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Where("id = ? AND status = ?", id, models.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":             models.AttemptCompleted,
			"submitted_at":       result.SubmittedAt,
			"score":              result.Score,
			"total_marks":        result.TotalMarks,
			"percentage":         result.Percentage,
			"passed":             result.Passed,
			"passing_marks":      result.PassingMarks,
			"total_questions":    result.TotalQuestions,
			"correct_answers":    result.CorrectAnswers,
			"time_taken_minutes": result.TimeTakenMinutes,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to finalize attempt: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (a *AttemptPostgreSQL) ExpireOverdue(ctx context.Context, tx *gorm.DB, now time.Time) ([]*models.AssessmentAttempt, error) {
	db := a.helpers.getDB(tx).WithContext(ctx)

	var candidates []*models.AssessmentAttempt
	err := db.Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.AttemptInProgress, now).
		Order("id ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue attempts: %w", err)
	}

	expired := make([]*models.AssessmentAttempt, 0, len(candidates))
	for _, attempt := range candidates {
		// Same guard as Finalize so a submit racing the sweep wins or loses cleanly
		res := db.Model(&models.AssessmentAttempt{}).
			Where("id = ? AND status = ?", attempt.ID, models.AttemptInProgress).
			Update("status", models.AttemptExpired)
		if res.Error != nil {
			return expired, fmt.Errorf("failed to expire attempt %d: %w", attempt.ID, res.Error)
		}
		if res.RowsAffected == 1 {
			attempt.Status = models.AttemptExpired
			expired = append(expired, attempt)
		}
	}
	return expired, nil
}

// ===== RESPONSE REPOSITORY IMPLEMENTATION =====

type ResponsePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *ResponsePostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, responses []*models.Response) error {
	if len(responses) == 0 {
		return nil
	}
	if err := r.helpers.getDB(tx).WithContext(ctx).CreateInBatches(responses, 100).Error; err != nil {
		return fmt.Errorf("failed to create responses: %w", err)
	}
	return nil
}

func (r *ResponsePostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.Response, error) {
	var responses []*models.Response
	err := r.helpers.getDB(tx).WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("id ASC").
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}
	return responses, nil
}

func (r *ResponsePostgreSQL) CountByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (int64, error) {
	var count int64
	err := r.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Response{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

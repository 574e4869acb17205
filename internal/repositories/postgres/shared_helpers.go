package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// getDB returns the transaction DB if provided, otherwise the default DB
func (h *SharedHelpers) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.db
}

// CountAttemptsByStudent counts every attempt, whatever its status, so expired
// attempts keep consuming the attempt allowance.
func (h *SharedHelpers) CountAttemptsByStudent(ctx context.Context, tx *gorm.DB, assessmentID uint, studentID string) (int64, error) {
	var count int64
	err := h.getDB(tx).WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Where("assessment_id = ? AND student_id = ?", assessmentID, studentID).
		Count(&count).Error
	return count, err
}

// orderedQuestions preloads questions by presentation order.
func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("questions.order_index ASC, questions.id ASC")
}

// orderedOptions preloads options by presentation order.
func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("question_options.order_index ASC, question_options.id ASC")
}

// ApplyScheduleStatus filters on the window status at now, matching
// models.Assessment.ScheduleStatusAt: a start in the future wins over an end in the past.
func (h *SharedHelpers) ApplyScheduleStatus(query *gorm.DB, status models.ScheduleStatus, now time.Time) *gorm.DB {
	switch status {
	case models.ScheduleUpcoming:
		return query.Where("start_date IS NOT NULL AND start_date > ?", now)
	case models.ScheduleExpired:
		return query.Where("end_date IS NOT NULL AND end_date < ?", now).
			Where("start_date IS NULL OR start_date <= ?", now)
	case models.ScheduleActive:
		return query.Where("start_date IS NULL OR start_date <= ?", now).
			Where("end_date IS NULL OR end_date >= ?", now)
	}
	return query
}

// ApplyPagination applies limit/offset when set
func (h *SharedHelpers) ApplyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

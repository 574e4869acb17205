package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	helpers *SharedHelpers
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if err := e.helpers.getDB(tx).WithContext(ctx).Create(enrollment).Error; err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	return nil
}

func (e *EnrollmentPostgreSQL) activeScope(db *gorm.DB, userID string, now time.Time) *gorm.DB {
	return db.Model(&models.Enrollment{}).
		Where("user_id = ? AND status = ?", userID, models.EnrollmentActive).
		Where("expires_at IS NULL OR expires_at > ?", now)
}

func (e *EnrollmentPostgreSQL) GetActiveBatchIDs(ctx context.Context, tx *gorm.DB, userID string, now time.Time) ([]uint, error) {
	var batchIDs []uint
	err := e.activeScope(e.helpers.getDB(tx).WithContext(ctx), userID, now).
		Distinct().
		Order("batch_id ASC").
		Pluck("batch_id", &batchIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrolled batches: %w", err)
	}
	return batchIDs, nil
}

func (e *EnrollmentPostgreSQL) IsActivelyEnrolled(ctx context.Context, tx *gorm.DB, userID string, batchID uint, now time.Time) (bool, error) {
	var count int64
	err := e.activeScope(e.helpers.getDB(tx).WithContext(ctx), userID, now).
		Where("batch_id = ?", batchID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}

package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-assessment-service/internal/cache"
	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
)

type AssessmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAssessmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// Create inserts an assessment together with its questions and options.
func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	for i := range assessment.Questions {
		if err := assessment.Questions[i].ValidateOptions(); err != nil {
			return fmt.Errorf("invalid question: %w", err)
		}
	}

	if err := a.helpers.getDB(tx).WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	cache.InvalidateAssessment(ctx, a.cacheManager, assessment.ID)
	return nil
}

func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := a.helpers.getDB(tx).WithContext(ctx).First(&assessment, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return &assessment, nil
}

// GetWithQuestions is the read path used by start, submit and results. The
// definition is cached since learners never modify it.
func (a *AssessmentPostgreSQL) GetWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	var assessment models.Assessment

	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cache.AssessmentDetailsKey(id), &assessment, func() (interface{}, error) {
		var dbAssessment models.Assessment
		err := a.helpers.getDB(tx).WithContext(ctx).
			Preload("Questions", orderedQuestions).
			Preload("Questions.Options", orderedOptions).
			First(&dbAssessment, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get assessment with questions: %w", err)
		}
		return &dbAssessment, nil
	})
	if err != nil {
		return nil, err
	}

	return &assessment, nil
}

func (a *AssessmentPostgreSQL) ListPublishedByBatches(ctx context.Context, tx *gorm.DB, filters repositories.CatalogFilters) ([]*models.Assessment, int64, error) {
	if len(filters.BatchIDs) == 0 {
		return []*models.Assessment{}, 0, nil
	}

	query := a.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Assessment{}).
		Where("batch_id IN ? AND is_published = ?", filters.BatchIDs, true)
	if filters.Status != nil {
		query = a.helpers.ApplyScheduleStatus(query, *filters.Status, filters.Now)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	var assessments []*models.Assessment
	err := a.helpers.ApplyPagination(query.Session(&gorm.Session{}), filters.Limit, filters.Offset).
		Preload("Questions", orderedQuestions).
		Order("id ASC").
		Find(&assessments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, total, nil
}

// ===== BATCH & ENROLLMENT =====

type BatchPostgreSQL struct {
	helpers *SharedHelpers
}

func NewBatchPostgreSQL(db *gorm.DB) repositories.BatchRepository {
	return &BatchPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (b *BatchPostgreSQL) Create(ctx context.Context, tx *gorm.DB, batch *models.Batch) error {
	if err := b.helpers.getDB(tx).WithContext(ctx).Create(batch).Error; err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

func (b *BatchPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]*models.Batch, error) {
	result := make(map[uint]*models.Batch, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var batches []*models.Batch
	if err := b.helpers.getDB(tx).WithContext(ctx).Where("id IN ?", ids).Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("failed to get batches: %w", err)
	}
	for _, batch := range batches {
		result[batch.ID] = batch
	}
	return result, nil
}

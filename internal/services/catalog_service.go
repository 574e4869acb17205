package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/SAP-F-2025/lms-assessment-service/internal/cache"
	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/lms-assessment-service/internal/validator"
)

const (
	defaultCatalogPageSize = 20
	maxCatalogPageSize     = 100
)

type catalogService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	now       Clock
}

func NewCatalogService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, clock Clock) CatalogService {
	if clock == nil {
		clock = utcNow
	}
	return &catalogService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		now:       clock,
	}
}

// ListAssessments never reveals whether a batch exists: a batch filter the
// learner is not actively enrolled in yields an empty page.
func (s *catalogService) ListAssessments(ctx context.Context, userID string, query *ListAssessmentsQuery) (*CatalogResponse, error) {
	if query == nil {
		query = &ListAssessmentsQuery{}
	}
	if err := s.validator.Validate(query); err != nil {
		return nil, err
	}

	page, size := normalizePage(query.Page, query.Size)
	now := s.now()

	// The minute bucket keeps the derived status fresh in cached pages
	key := cache.CatalogKey(userID, batchKeyPart(query.BatchID), query.Status, page, size, now.Truncate(time.Minute).Unix())

	var response CatalogResponse
	err := s.repo.CacheManager().Catalog.CacheOrExecute(ctx, key, &response, func() (interface{}, error) {
		return s.listAssessments(ctx, userID, query, page, size, now)
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (s *catalogService) listAssessments(ctx context.Context, userID string, query *ListAssessmentsQuery, page, size int, now time.Time) (*CatalogResponse, error) {
	response := &CatalogResponse{
		Assessments: []*CatalogItem{},
		Page:        page,
		Size:        size,
	}

	batchIDs, err := s.repo.Enrollment().GetActiveBatchIDs(ctx, nil, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrolled batches: %w", err)
	}

	if query.BatchID != nil {
		if !slices.Contains(batchIDs, *query.BatchID) {
			s.logger.Debug("Catalog batch filter outside enrollments",
				"student_id", userID,
				"batch_id", *query.BatchID)
			return response, nil
		}
		batchIDs = []uint{*query.BatchID}
	}
	if len(batchIDs) == 0 {
		return response, nil
	}

	filters := repositories.CatalogFilters{
		BatchIDs: batchIDs,
		Now:      now,
		Limit:    size,
		Offset:   (page - 1) * size,
	}
	if query.Status != "" {
		status := models.ScheduleStatus(query.Status)
		filters.Status = &status
	}

	assessments, total, err := s.repo.Assessment().ListPublishedByBatches(ctx, nil, filters)
	if err != nil {
		return nil, err
	}
	response.Total = total
	if len(assessments) == 0 {
		return response, nil
	}

	assessmentIDs := make([]uint, 0, len(assessments))
	for _, a := range assessments {
		assessmentIDs = append(assessmentIDs, a.ID)
	}

	attempts, err := s.repo.Attempt().GetByStudentAndAssessments(ctx, nil, userID, assessmentIDs)
	if err != nil {
		return nil, err
	}
	attemptsByAssessment := make(map[uint][]*models.AssessmentAttempt, len(assessments))
	for _, attempt := range attempts {
		attemptsByAssessment[attempt.AssessmentID] = append(attemptsByAssessment[attempt.AssessmentID], attempt)
	}

	batches, err := s.repo.Batch().GetByIDs(ctx, nil, batchIDs)
	if err != nil {
		return nil, err
	}

	for _, assessment := range assessments {
		item := toCatalogItem(assessment, now)
		if batch, ok := batches[assessment.BatchID]; ok {
			item.BatchTitle = batch.Title
		}
		item.AttemptSummary = summarizeAttempts(assessment, attemptsByAssessment[assessment.ID], item.Status)
		response.Assessments = append(response.Assessments, item)
	}

	return response, nil
}

func toCatalogItem(assessment *models.Assessment, now time.Time) *CatalogItem {
	return &CatalogItem{
		ID:               assessment.ID,
		Title:            assessment.Title,
		Description:      assessment.Description,
		Type:             assessment.Type,
		BatchID:          assessment.BatchID,
		LessonID:         assessment.LessonID,
		QuestionCount:    len(assessment.Questions),
		TotalMarks:       assessment.TotalMarks(),
		PassingMarks:     assessment.PassingMarks,
		TimeLimitMinutes: assessment.TimeLimitMinutes,
		MaxAttempts:      assessment.MaxAttempts,
		StartDate:        assessment.StartDate,
		EndDate:          assessment.EndDate,
		Status:           assessment.ScheduleStatusAt(now),
	}
}

// summarizeAttempts expects attempts ordered by attempt number.
func summarizeAttempts(assessment *models.Assessment, attempts []*models.AssessmentAttempt, status models.ScheduleStatus) AttemptSummary {
	summary := AttemptSummary{AttemptsCount: len(attempts)}

	for _, attempt := range attempts {
		switch attempt.Status {
		case models.AttemptCompleted:
			summary.BestScore = max(summary.BestScore, attempt.Score)
		case models.AttemptInProgress:
			summary.HasActiveAttempt = true
		}
	}

	if n := len(attempts); n > 0 {
		latest := attempts[n-1]
		summary.LatestAttempt = &LatestAttempt{
			ID:          latest.ID,
			Score:       latest.Score,
			Status:      latest.Status,
			SubmittedAt: latest.SubmittedAt,
		}
	}

	if assessment.MaxAttempts != nil {
		remaining := max(*assessment.MaxAttempts-len(attempts), 0)
		summary.RemainingAttempts = &remaining
	}

	summary.CanStart = status == models.ScheduleActive &&
		!summary.HasActiveAttempt &&
		(summary.RemainingAttempts == nil || *summary.RemainingAttempts > 0)

	return summary
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultCatalogPageSize
	}
	if size > maxCatalogPageSize {
		size = maxCatalogPageSize
	}
	return page, size
}

func batchKeyPart(batchID *uint) string {
	if batchID == nil {
		return "all"
	}
	return fmt.Sprintf("%d", *batchID)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lms-assessment-service/internal/cache"
	"github.com/SAP-F-2025/lms-assessment-service/internal/events"
	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/lms-assessment-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	now       Clock
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, clock Clock) AttemptService {
	if clock == nil {
		clock = utcNow
	}
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       clock,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

// Start opens a new attempt. A missing or unpublished assessment is
// ErrAssessmentNotFound; every other failed rule is collected into one
// *NotEligibleError.
func (s *attemptService) Start(ctx context.Context, userID string, assessmentID uint) (*StartAttemptResponse, error) {
	s.logger.Info("Starting assessment attempt",
		"assessment_id", assessmentID,
		"student_id", userID)

	assessment, err := s.getPublishedAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var attempt *models.AssessmentAttempt

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		check, err := checkEligibility(ctx, txRepo, userID, assessment, now)
		if err != nil {
			return err
		}
		if len(check.reasons) > 0 {
			return NewNotEligibleError(check.reasons...)
		}

		attempt = newAttempt(assessment, userID, int(check.priorAttempts)+1, now)
		if err := txRepo.Attempt().Create(ctx, nil, attempt); err != nil {
			// A concurrent start won the unique index
			if repositories.IsDuplicateKeyError(err) {
				return NewNotEligibleError(ReasonOngoingAttempt)
			}
			return err
		}
		return nil
	})
	if err != nil {
		var notEligible *NotEligibleError
		if errors.As(err, &notEligible) {
			s.logger.Info("Attempt start rejected",
				"assessment_id", assessmentID,
				"student_id", userID,
				"reasons", notEligible.Reasons)
			return nil, err
		}
		return nil, fmt.Errorf("failed to start attempt: %w", err)
	}

	s.logger.Info("Assessment attempt started",
		"attempt_id", attempt.ID,
		"attempt_number", attempt.AttemptNumber,
		"assessment_id", assessmentID,
		"student_id", userID)

	cache.InvalidateCatalog(ctx, s.repo.CacheManager(), userID)
	s.publishAttemptEvent(ctx, events.AttemptStarted, attempt)

	return &StartAttemptResponse{
		Attempt:   toAttemptView(attempt, assessment),
		Questions: questionsForAttempt(assessment),
	}, nil
}

// Submit grades the answers and finalizes the attempt in one transaction.
func (s *attemptService) Submit(ctx context.Context, userID string, attemptID uint, req *SubmitAnswersRequest) (*SubmissionResult, error) {
	s.logger.Info("Submitting assessment attempt",
		"attempt_id", attemptID,
		"student_id", userID,
		"answers", len(req.Answers))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()

	attempt, err := s.getOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	// Swept or not, an attempt past its limit reports the time limit
	if attempt.Status == models.AttemptExpired ||
		(attempt.Status == models.AttemptInProgress && attempt.ExpiredAt(now)) {
		s.logger.Info("Submission after time limit rejected",
			"attempt_id", attemptID,
			"status", attempt.Status,
			"expires_at", attempt.ExpiresAt,
			"now", now)
		return nil, ErrAttemptTimeExpired
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptNotActive
	}

	assessment, err := s.repo.Assessment().GetWithQuestions(ctx, nil, attempt.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if errs := s.validator.ValidateAnswers(assessment, req.Answers); len(errs) > 0 {
		return nil, errs
	}

	responses, summary := GradeSubmission(attempt.ID, assessment, req.Answers)
	// Marks are judged against what the learner saw at start
	final := repositories.FinalizeAttempt{
		SubmittedAt:      now,
		Score:            summary.Score,
		TotalMarks:       attempt.TotalMarks,
		Percentage:       CalculatePercentage(summary.Score, attempt.TotalMarks),
		Passed:           IsPassing(summary.Score, attempt.PassingMarks),
		PassingMarks:     attempt.PassingMarks,
		TotalQuestions:   summary.TotalQuestions,
		CorrectAnswers:   summary.CorrectAnswers,
		TimeTakenMinutes: minutesBetween(attempt.StartedAt, now),
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		won, err := txRepo.Attempt().Finalize(ctx, nil, attempt.ID, final)
		if err != nil {
			return err
		}
		if !won {
			return ErrAttemptNotActive
		}
		return txRepo.Response().CreateBatch(ctx, nil, responses)
	})
	if err != nil {
		if errors.Is(err, ErrAttemptNotActive) {
			return nil, ErrAttemptNotActive
		}
		return nil, fmt.Errorf("failed to finalize attempt: %w", err)
	}

	s.logger.Info("Assessment attempt completed",
		"attempt_id", attempt.ID,
		"student_id", userID,
		"score", final.Score,
		"total_marks", final.TotalMarks,
		"passed", final.Passed)

	applyFinalize(attempt, final)
	cache.InvalidateCatalog(ctx, s.repo.CacheManager(), userID)
	s.publishAttemptEvent(ctx, events.AttemptCompleted, attempt)

	return &SubmissionResult{
		AttemptID:        attempt.ID,
		Score:            final.Score,
		TotalMarks:       final.TotalMarks,
		Percentage:       final.Percentage,
		Passed:           final.Passed,
		CorrectAnswers:   final.CorrectAnswers,
		TotalQuestions:   final.TotalQuestions,
		TimeTakenMinutes: final.TimeTakenMinutes,
		SubmittedAt:      now,
	}, nil
}

// ExpireOverdue marks stale in-progress attempts as expired. Used by the sweeper.
func (s *attemptService) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.now()

	var expired []*models.AssessmentAttempt
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		expired, err = txRepo.Attempt().ExpireOverdue(ctx, nil, now)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue attempts: %w", err)
	}

	for _, attempt := range expired {
		cache.InvalidateCatalog(ctx, s.repo.CacheManager(), attempt.StudentID)
		s.publishAttemptEvent(ctx, events.AttemptExpired, attempt)
	}

	if len(expired) > 0 {
		s.logger.Info("Expired overdue attempts", "count", len(expired))
	}
	return len(expired), nil
}

// ===== HELPERS =====

func (s *attemptService) getPublishedAssessment(ctx context.Context, assessmentID uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetWithQuestions(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if !assessment.IsPublished {
		return nil, ErrAssessmentNotFound
	}
	return assessment, nil
}

func (s *attemptService) getOwnedAttempt(ctx context.Context, userID string, attemptID uint) (*models.AssessmentAttempt, error) {
	return getOwnedAttempt(ctx, s.repo, userID, attemptID)
}

// publishAttemptEvent never fails the caller.
func (s *attemptService) publishAttemptEvent(ctx context.Context, eventType events.EventType, attempt *models.AssessmentAttempt) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, attemptEventData(attempt))); err != nil {
		s.logger.Warn("Failed to publish attempt event",
			"type", eventType,
			"attempt_id", attempt.ID,
			"error", err)
	}
}

func minutesBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

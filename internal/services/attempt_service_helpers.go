package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/lms-assessment-service/internal/events"
	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
)

type eligibilityCheck struct {
	reasons       []string
	priorAttempts int64
}

// checkEligibility evaluates every start rule without stopping at the first
// failure. Reasons are in rule order. repo is normally bound to the start
// transaction.
func checkEligibility(ctx context.Context, repo repositories.Repository, userID string, assessment *models.Assessment, now time.Time) (*eligibilityCheck, error) {
	check := &eligibilityCheck{}

	enrolled, err := repo.Enrollment().IsActivelyEnrolled(ctx, nil, userID, assessment.BatchID, now)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		check.reasons = append(check.reasons, ReasonNotEnrolled)
	}

	switch assessment.ScheduleStatusAt(now) {
	case models.ScheduleUpcoming:
		check.reasons = append(check.reasons, ReasonNotStarted)
	case models.ScheduleExpired:
		check.reasons = append(check.reasons, ReasonEnded)
	}

	check.priorAttempts, err = repo.Attempt().CountByStudent(ctx, nil, userID, assessment.ID)
	if err != nil {
		return nil, err
	}
	if assessment.MaxAttempts != nil && check.priorAttempts >= int64(*assessment.MaxAttempts) {
		check.reasons = append(check.reasons, ReasonMaxAttempts)
	}

	if _, err := repo.Attempt().GetActiveAttempt(ctx, nil, userID, assessment.ID); err == nil {
		check.reasons = append(check.reasons, ReasonOngoingAttempt)
	} else if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	return check, nil
}

func newAttempt(assessment *models.Assessment, userID string, number int, now time.Time) *models.AssessmentAttempt {
	attempt := &models.AssessmentAttempt{
		AssessmentID:  assessment.ID,
		StudentID:     userID,
		BatchID:       assessment.BatchID,
		AttemptNumber: number,
		Status:        models.AttemptInProgress,
		StartedAt:     now,
		TotalMarks:    assessment.TotalMarks(),
		PassingMarks:  assessment.PassingMarks,
	}
	if assessment.TimeLimitMinutes != nil {
		expiresAt := now.Add(time.Duration(*assessment.TimeLimitMinutes) * time.Minute)
		attempt.ExpiresAt = &expiresAt
	}
	return attempt
}

// getOwnedAttempt hides attempts of other learners behind ErrAttemptNotFound.
func getOwnedAttempt(ctx context.Context, repo repositories.Repository, userID string, attemptID uint) (*models.AssessmentAttempt, error) {
	attempt, err := repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != userID {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

func applyFinalize(attempt *models.AssessmentAttempt, final repositories.FinalizeAttempt) {
	submittedAt := final.SubmittedAt
	attempt.Status = models.AttemptCompleted
	attempt.SubmittedAt = &submittedAt
	attempt.Score = final.Score
	attempt.TotalMarks = final.TotalMarks
	attempt.Percentage = final.Percentage
	attempt.Passed = final.Passed
	attempt.PassingMarks = final.PassingMarks
	attempt.TotalQuestions = final.TotalQuestions
	attempt.CorrectAnswers = final.CorrectAnswers
	attempt.TimeTakenMinutes = final.TimeTakenMinutes
}

// ===== VIEW MAPPING =====

func toAttemptView(attempt *models.AssessmentAttempt, assessment *models.Assessment) AttemptView {
	return AttemptView{
		ID:               attempt.ID,
		AssessmentID:     attempt.AssessmentID,
		BatchID:          attempt.BatchID,
		AttemptNumber:    attempt.AttemptNumber,
		Status:           attempt.Status,
		StartedAt:        attempt.StartedAt,
		ExpiresAt:        attempt.ExpiresAt,
		TimeLimitMinutes: assessment.TimeLimitMinutes,
		TotalMarks:       assessment.TotalMarks(),
	}
}

// questionsForAttempt copies questions and options in presentation order,
// leaving out the correct flags.
func questionsForAttempt(assessment *models.Assessment) []QuestionForAttempt {
	questions := make([]QuestionForAttempt, 0, len(assessment.Questions))
	for _, q := range assessment.Questions {
		options := make([]OptionForAttempt, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, OptionForAttempt{
				ID:         o.ID,
				Text:       o.Text,
				OrderIndex: o.OrderIndex,
			})
		}
		questions = append(questions, QuestionForAttempt{
			ID:         q.ID,
			Text:       q.Text,
			Type:       q.Type,
			Points:     q.Points,
			OrderIndex: q.OrderIndex,
			Options:    options,
		})
	}
	return questions
}

func attemptEventData(attempt *models.AssessmentAttempt) events.AttemptEvent {
	data := events.AttemptEvent{
		AttemptID:     attempt.ID,
		AssessmentID:  attempt.AssessmentID,
		BatchID:       attempt.BatchID,
		StudentID:     attempt.StudentID,
		AttemptNumber: attempt.AttemptNumber,
		Status:        string(attempt.Status),
		StartedAt:     attempt.StartedAt,
		ExpiresAt:     attempt.ExpiresAt,
		SubmittedAt:   attempt.SubmittedAt,
	}
	if attempt.Status == models.AttemptCompleted {
		score, total, percentage, passed := attempt.Score, attempt.TotalMarks, attempt.Percentage, attempt.Passed
		data.Score = &score
		data.TotalMarks = &total
		data.Percentage = &percentage
		data.Passed = &passed
	}
	return data
}

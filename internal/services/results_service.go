package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
)

type resultsService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewResultsService(repo repositories.Repository, logger *slog.Logger) ResultsService {
	return &resultsService{
		repo:   repo,
		logger: logger,
	}
}

// GetResults returns the graded breakdown of a completed attempt owned by userID.
// Every question of the assessment is listed, answered or not.
func (s *resultsService) GetResults(ctx context.Context, userID string, attemptID uint) (*AttemptResults, error) {
	attempt, err := getOwnedAttempt(ctx, s.repo, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptCompleted {
		return nil, ErrAttemptNotCompleted
	}

	assessment, err := s.repo.Assessment().GetWithQuestions(ctx, nil, attempt.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	responses, err := s.repo.Response().GetByAttempt(ctx, nil, attempt.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Building attempt results",
		"attempt_id", attempt.ID,
		"responses", len(responses))

	return buildAttemptResults(attempt, assessment, responses), nil
}

func buildAttemptResults(attempt *models.AssessmentAttempt, assessment *models.Assessment, responses []*models.Response) *AttemptResults {
	byQuestion := make(map[uint]*models.Response, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r
	}

	results := &AttemptResults{
		AttemptID:        attempt.ID,
		AssessmentID:     assessment.ID,
		AssessmentTitle:  assessment.Title,
		AttemptNumber:    attempt.AttemptNumber,
		Score:            attempt.Score,
		TotalMarks:       attempt.TotalMarks,
		Percentage:       CalculatePercentage(attempt.Score, attempt.TotalMarks),
		Passed:           IsPassing(attempt.Score, attempt.PassingMarks),
		PassingMarks:     attempt.PassingMarks,
		StartedAt:        attempt.StartedAt,
		SubmittedAt:      attempt.SubmittedAt,
		TimeTakenMinutes: attempt.TimeTakenMinutes,
		Questions:        make([]QuestionResult, 0, len(assessment.Questions)),
	}

	for i := range assessment.Questions {
		question := &assessment.Questions[i]
		qr := QuestionResult{
			QuestionID:      question.ID,
			OrderIndex:      question.OrderIndex,
			Text:            question.Text,
			Type:            question.Type,
			MaxMarks:        question.Points,
			SelectedOptions: []string{},
			CorrectOptions:  optionTexts(question, question.CorrectOptionIDs()),
		}

		if response, ok := byQuestion[question.ID]; ok {
			qr.Answered = true
			qr.SelectedOptions = optionTexts(question, response.SelectedOptionIDs)
			qr.TextAnswer = response.TextAnswer
			qr.IsCorrect = response.IsCorrect
			qr.MarksAwarded = response.MarksAwarded
			if response.MaxMarks > 0 {
				qr.MaxMarks = response.MaxMarks
			}

			results.Summary.Answered++
			switch {
			case response.IsCorrect == nil:
				results.Summary.PendingReview++
			case *response.IsCorrect:
				results.Summary.Correct++
			}
		} else if question.Type.IsObjective() {
			incorrect := false
			qr.IsCorrect = &incorrect
		}

		results.Questions = append(results.Questions, qr)
	}

	results.Summary.TotalQuestions = len(assessment.Questions)
	results.Summary.Unanswered = results.Summary.TotalQuestions - results.Summary.Answered
	return results
}

// optionTexts maps ids to option texts in the question's option order.
func optionTexts(question *models.Question, ids []uint) []string {
	selected := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}
	texts := make([]string, 0, len(ids))
	for _, o := range question.Options {
		if _, ok := selected[o.ID]; ok {
			texts = append(texts, o.Text)
		}
	}
	return texts
}

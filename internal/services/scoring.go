package services

import (
	"math"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
)

// IsCorrect is exact set equality between the correct and the selected option
// ids. Order and repeats are ignored. There is no partial credit.
func IsCorrect(correct, selected []uint) bool {
	want := make(map[uint]struct{}, len(correct))
	for _, id := range correct {
		want[id] = struct{}{}
	}
	got := make(map[uint]struct{}, len(selected))
	for _, id := range selected {
		if _, ok := want[id]; !ok {
			return false
		}
		got[id] = struct{}{}
	}
	return len(got) == len(want)
}

// Grade is the outcome of grading one answer. IsCorrect is nil for answers
// that need a human grader.
type Grade struct {
	IsCorrect    *bool
	MarksAwarded int
	MaxMarks     int
}

// GradeAnswer grades an answer to question. Objective questions earn full
// points on an exact match and 0 otherwise; subjective ones are left ungraded.
func GradeAnswer(question *models.Question, selected []uint) Grade {
	grade := Grade{MaxMarks: question.Points}

	switch question.Type.Kind() {
	case models.KindObjective:
		correct := IsCorrect(question.CorrectOptionIDs(), selected)
		grade.IsCorrect = &correct
		if correct {
			grade.MarksAwarded = question.Points
		}
	case models.KindSubjective:
		// awaiting manual grading
	}

	return grade
}

// CalculatePercentage is score/total*100 rounded to one decimal, 0 when total is 0.
func CalculatePercentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(score)*1000/float64(total)) / 10
}

// IsPassing is false when no passing mark is configured.
func IsPassing(score int, passingMarks *int) bool {
	return passingMarks != nil && score >= *passingMarks
}

// ScoreSummary aggregates the graded answers of one submission.
type ScoreSummary struct {
	Score          int
	TotalMarks     int
	Percentage     float64
	Passed         bool
	CorrectAnswers int
	TotalQuestions int
}

// GradeSubmission grades validated answers and returns the responses to store.
// Answers must reference questions of assessment.
func GradeSubmission(attemptID uint, assessment *models.Assessment, answers []AnswerRequest) ([]*models.Response, ScoreSummary) {
	summary := ScoreSummary{TotalMarks: assessment.TotalMarks()}
	responses := make([]*models.Response, 0, len(answers))

	for _, answer := range answers {
		question, ok := assessment.QuestionByID(answer.QuestionID)
		if !ok {
			continue
		}

		selected := answer.SelectedOptionIDs
		if selected == nil {
			selected = []uint{}
		}

		grade := GradeAnswer(question, selected)
		responses = append(responses, &models.Response{
			AttemptID:         attemptID,
			QuestionID:        question.ID,
			SelectedOptionIDs: datatypes.NewJSONSlice(selected),
			TextAnswer:        answer.TextAnswer,
			IsCorrect:         grade.IsCorrect,
			MarksAwarded:      grade.MarksAwarded,
			MaxMarks:          grade.MaxMarks,
		})

		summary.Score += grade.MarksAwarded
		summary.TotalQuestions++
		if grade.IsCorrect != nil && *grade.IsCorrect {
			summary.CorrectAnswers++
		}
	}

	summary.Percentage = CalculatePercentage(summary.Score, summary.TotalMarks)
	summary.Passed = IsPassing(summary.Score, assessment.PassingMarks)
	return responses, summary
}

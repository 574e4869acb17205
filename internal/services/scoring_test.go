package services

import (
	"testing"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
)

func TestIsCorrect(t *testing.T) {
	tests := []struct {
		name     string
		correct  []uint
		selected []uint
		want     bool
	}{
		{name: "single match", correct: []uint{2}, selected: []uint{2}, want: true},
		{name: "single wrong", correct: []uint{2}, selected: []uint{3}, want: false},
		{name: "nothing selected", correct: []uint{2}, selected: nil, want: false},
		{name: "multi exact", correct: []uint{1, 3}, selected: []uint{1, 3}, want: true},
		{name: "multi order ignored", correct: []uint{1, 3}, selected: []uint{3, 1}, want: true},
		{name: "multi subset", correct: []uint{1, 3}, selected: []uint{1}, want: false},
		{name: "multi superset", correct: []uint{1, 3}, selected: []uint{1, 2, 3}, want: false},
		{name: "multi disjoint", correct: []uint{1, 3}, selected: []uint{2, 4}, want: false},
		{name: "repeats ignored", correct: []uint{1, 3}, selected: []uint{1, 1, 3}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCorrect(tt.correct, tt.selected); got != tt.want {
				t.Errorf("IsCorrect(%v, %v) = %v, want %v", tt.correct, tt.selected, got, tt.want)
			}
		})
	}
}

func TestGradeAnswer(t *testing.T) {
	single := &models.Question{
		Type:   models.SingleChoice,
		Points: 5,
		Options: []models.Option{
			{ID: 1, IsCorrect: false},
			{ID: 2, IsCorrect: true},
		},
	}
	multi := &models.Question{
		Type:   models.MultipleChoice,
		Points: 4,
		Options: []models.Option{
			{ID: 10, IsCorrect: true},
			{ID: 11, IsCorrect: false},
			{ID: 12, IsCorrect: true},
		},
	}
	essay := &models.Question{Type: models.Essay, Points: 10}

	tests := []struct {
		name        string
		question    *models.Question
		selected    []uint
		wantCorrect *bool
		wantMarks   int
	}{
		{name: "single correct", question: single, selected: []uint{2}, wantCorrect: boolPtr(true), wantMarks: 5},
		{name: "single wrong", question: single, selected: []uint{1}, wantCorrect: boolPtr(false), wantMarks: 0},
		{name: "multi exact", question: multi, selected: []uint{12, 10}, wantCorrect: boolPtr(true), wantMarks: 4},
		{name: "multi partial earns nothing", question: multi, selected: []uint{10}, wantCorrect: boolPtr(false), wantMarks: 0},
		{name: "essay pending", question: essay, selected: nil, wantCorrect: nil, wantMarks: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GradeAnswer(tt.question, tt.selected)
			if got.MarksAwarded != tt.wantMarks {
				t.Errorf("MarksAwarded = %d, want %d", got.MarksAwarded, tt.wantMarks)
			}
			if got.MaxMarks != tt.question.Points {
				t.Errorf("MaxMarks = %d, want %d", got.MaxMarks, tt.question.Points)
			}
			switch {
			case tt.wantCorrect == nil && got.IsCorrect != nil:
				t.Errorf("IsCorrect = %v, want nil", *got.IsCorrect)
			case tt.wantCorrect != nil && got.IsCorrect == nil:
				t.Errorf("IsCorrect = nil, want %v", *tt.wantCorrect)
			case tt.wantCorrect != nil && *got.IsCorrect != *tt.wantCorrect:
				t.Errorf("IsCorrect = %v, want %v", *got.IsCorrect, *tt.wantCorrect)
			}
		})
	}
}

func TestCalculatePercentage(t *testing.T) {
	tests := []struct {
		score, total int
		want         float64
	}{
		{score: 42, total: 50, want: 84.0},
		{score: 5, total: 10, want: 50.0},
		{score: 1, total: 3, want: 33.3},
		{score: 2, total: 3, want: 66.7},
		{score: 0, total: 0, want: 0},
		{score: 7, total: 0, want: 0},
		{score: 10, total: 10, want: 100},
	}
	for _, tt := range tests {
		if got := CalculatePercentage(tt.score, tt.total); got != tt.want {
			t.Errorf("CalculatePercentage(%d, %d) = %v, want %v", tt.score, tt.total, got, tt.want)
		}
	}
}

func TestIsPassing(t *testing.T) {
	tests := []struct {
		name    string
		score   int
		passing *int
		want    bool
	}{
		{name: "above", score: 8, passing: intPtr(6), want: true},
		{name: "equal", score: 6, passing: intPtr(6), want: true},
		{name: "below", score: 5, passing: intPtr(6), want: false},
		{name: "no passing marks", score: 100, passing: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPassing(tt.score, tt.passing); got != tt.want {
				t.Errorf("IsPassing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGradeSubmission(t *testing.T) {
	assessment := &models.Assessment{
		PassingMarks: intPtr(5),
		Questions: []models.Question{
			{ID: 1, Type: models.SingleChoice, Points: 5, Options: []models.Option{{ID: 11, IsCorrect: true}, {ID: 12}}},
			{ID: 2, Type: models.MultipleChoice, Points: 3, Options: []models.Option{{ID: 21, IsCorrect: true}, {ID: 22, IsCorrect: true}, {ID: 23}}},
			{ID: 3, Type: models.Essay, Points: 2},
		},
	}
	answers := []AnswerRequest{
		{QuestionID: 1, SelectedOptionIDs: []uint{11}},
		{QuestionID: 2, SelectedOptionIDs: []uint{21}},
		{QuestionID: 3, TextAnswer: strPtr("free text")},
	}

	responses, summary := GradeSubmission(7, assessment, answers)

	if len(responses) != 3 {
		t.Fatalf("len(responses) = %d, want 3", len(responses))
	}
	if summary.Score != 5 || summary.TotalMarks != 10 {
		t.Errorf("score = %d/%d, want 5/10", summary.Score, summary.TotalMarks)
	}
	if summary.Percentage != 50.0 {
		t.Errorf("Percentage = %v, want 50", summary.Percentage)
	}
	if !summary.Passed {
		t.Error("Passed = false, want true")
	}
	if summary.CorrectAnswers != 1 || summary.TotalQuestions != 3 {
		t.Errorf("correct = %d of %d, want 1 of 3", summary.CorrectAnswers, summary.TotalQuestions)
	}
	for _, r := range responses {
		if r.AttemptID != 7 {
			t.Errorf("response AttemptID = %d, want 7", r.AttemptID)
		}
		if r.SelectedOptionIDs == nil {
			t.Errorf("question %d: SelectedOptionIDs is nil", r.QuestionID)
		}
	}
	if responses[2].IsCorrect != nil {
		t.Error("essay response should be ungraded")
	}
}

func boolPtr(v bool) *bool { return &v }

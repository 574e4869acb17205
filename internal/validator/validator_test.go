package validator

import (
	"errors"
	"testing"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func TestValidator_Validate(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantRule  string
	}{
		{name: "empty query", input: &ListAssessmentsQuery{}},
		{name: "valid status", input: &ListAssessmentsQuery{Status: "upcoming", BatchID: uintPtr(3)}},
		{name: "unknown status", input: &ListAssessmentsQuery{Status: "open"}, wantField: "status", wantRule: "catalog_status"},
		{name: "zero batch", input: &ListAssessmentsQuery{BatchID: uintPtr(0)}, wantField: "batch_id", wantRule: "min"},
		{name: "page size too large", input: &ListAssessmentsQuery{Size: 101}, wantField: "size", wantRule: "max"},
		{name: "no answers", input: &SubmitAnswersRequest{}},
		{
			name:  "valid answers",
			input: &SubmitAnswersRequest{Answers: []AnswerRequest{{QuestionID: 1, SelectedOptionIDs: []uint{2, 3}}}},
		},
		{
			name:      "missing question id",
			input:     &SubmitAnswersRequest{Answers: []AnswerRequest{{SelectedOptionIDs: []uint{2}}}},
			wantField: "answers[0].question_id",
			wantRule:  "required",
		},
		{
			name:      "repeated option",
			input:     &SubmitAnswersRequest{Answers: []AnswerRequest{{QuestionID: 1}, {QuestionID: 2, SelectedOptionIDs: []uint{4, 4}}}},
			wantField: "answers[1].selected_option_ids",
			wantRule:  "id_set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var ve ValidationErrors
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want ValidationErrors", err)
			}
			if len(ve) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(ve), ve)
			}
			if ve[0].Field != tt.wantField || ve[0].Rule != tt.wantRule {
				t.Errorf("got %s/%s, want %s/%s", ve[0].Field, ve[0].Rule, tt.wantField, tt.wantRule)
			}
		})
	}
}

func TestValidator_ValidateAnswers(t *testing.T) {
	assessment := &models.Assessment{
		Questions: []models.Question{
			{ID: 1, Type: models.SingleChoice, Options: []models.Option{{ID: 11}, {ID: 12}}},
			{ID: 2, Type: models.MultipleChoice, Options: []models.Option{{ID: 21}, {ID: 22}, {ID: 23}}},
			{ID: 3, Type: models.Essay},
		},
	}
	text := "free text"

	tests := []struct {
		name      string
		answers   []AnswerRequest
		wantRules []string
	}{
		{
			name: "all valid",
			answers: []AnswerRequest{
				{QuestionID: 1, SelectedOptionIDs: []uint{11}},
				{QuestionID: 2, SelectedOptionIDs: []uint{21, 23}},
				{QuestionID: 3, TextAnswer: &text},
			},
		},
		{name: "empty selection is allowed", answers: []AnswerRequest{{QuestionID: 1}}},
		{
			name:      "foreign question",
			answers:   []AnswerRequest{{QuestionID: 99}},
			wantRules: []string{"question_membership"},
		},
		{
			name:      "duplicate question",
			answers:   []AnswerRequest{{QuestionID: 1, SelectedOptionIDs: []uint{11}}, {QuestionID: 1, SelectedOptionIDs: []uint{12}}},
			wantRules: []string{"unique_question"},
		},
		{
			name:      "option of another question",
			answers:   []AnswerRequest{{QuestionID: 1, SelectedOptionIDs: []uint{21}}},
			wantRules: []string{"option_membership"},
		},
		{name: "two options on single choice are left to grading", answers: []AnswerRequest{{QuestionID: 1, SelectedOptionIDs: []uint{11, 12}}}},
		{
			name: "every violation is reported",
			answers: []AnswerRequest{
				{QuestionID: 99},
				{QuestionID: 2, SelectedOptionIDs: []uint{11}},
				{QuestionID: 2},
			},
			wantRules: []string{"question_membership", "option_membership", "unique_question"},
		},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.ValidateAnswers(assessment, tt.answers)
			if len(got) != len(tt.wantRules) {
				t.Fatalf("got %d errors %v, want %d", len(got), got, len(tt.wantRules))
			}
			for i, rule := range tt.wantRules {
				if got[i].Rule != rule {
					t.Errorf("error[%d].Rule = %s, want %s", i, got[i].Rule, rule)
				}
			}
		})
	}
}

func TestToValidationErrors_Passthrough(t *testing.T) {
	in := ValidationErrors{{Field: "answers", Message: "bad", Rule: "x"}}
	if got := ToValidationErrors(in); len(got) != 1 || got[0].Field != "answers" {
		t.Errorf("ToValidationErrors() = %v", got)
	}
	if got := ToValidationErrors(errors.New("boom")); len(got) != 1 || got[0].Rule != "invalid" {
		t.Errorf("ToValidationErrors(plain) = %v", got)
	}
}

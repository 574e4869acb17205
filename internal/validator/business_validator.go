package validator

import (
	"fmt"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
)

// ValidateAnswers checks submitted answers against the assessment definition.
// Every violation is reported, not only the first one.
func (v *Validator) ValidateAnswers(assessment *models.Assessment, answers []AnswerRequest) ValidationErrors {
	var errors ValidationErrors
	seen := make(map[uint]int, len(answers))

	for i, answer := range answers {
		field := fmt.Sprintf("answers[%d]", i)

		question, ok := assessment.QuestionByID(answer.QuestionID)
		if !ok {
			errors = append(errors, ValidationError{
				Field:   field + ".question_id",
				Message: "does not belong to this assessment",
				Value:   answer.QuestionID,
				Rule:    "question_membership",
			})
			continue
		}

		if first, dup := seen[answer.QuestionID]; dup {
			errors = append(errors, ValidationError{
				Field:   field + ".question_id",
				Message: fmt.Sprintf("duplicates answers[%d]", first),
				Value:   answer.QuestionID,
				Rule:    "unique_question",
			})
			continue
		}
		seen[answer.QuestionID] = i

		errors = append(errors, validateSelection(field, question, answer)...)
	}

	return errors
}

// validateSelection only checks option membership. Extra options on a single
// answer question are graded as incorrect rather than rejected.
func validateSelection(field string, question *models.Question, answer AnswerRequest) ValidationErrors {
	var errors ValidationErrors

	for _, optionID := range answer.SelectedOptionIDs {
		if !question.HasOption(optionID) {
			errors = append(errors, ValidationError{
				Field:   field + ".selected_option_ids",
				Message: "contains an option that does not belong to the question",
				Value:   optionID,
				Rule:    "option_membership",
			})
		}
	}

	return errors
}

package validator

// ListAssessmentsQuery is bound from the catalog query string.
type ListAssessmentsQuery struct {
	BatchID *uint  `form:"batch_id" json:"batch_id" validate:"omitnil,min=1"`
	Status  string `form:"status" json:"status" validate:"omitempty,catalog_status"`
	Page    int    `form:"page" json:"page" validate:"omitempty,min=1"`
	Size    int    `form:"size" json:"size" validate:"omitempty,min=1,max=100"`
}

// AnswerRequest is one learner answer. Choice questions use SelectedOptionIDs,
// free-form questions use TextAnswer.
type AnswerRequest struct {
	QuestionID        uint    `json:"question_id" validate:"required"`
	SelectedOptionIDs []uint  `json:"selected_option_ids" validate:"omitempty,id_set"`
	TextAnswer        *string `json:"text_answer" validate:"omitempty,max=10000"`
}

// SubmitAnswersRequest carries every answer of an attempt. Questions left out
// are reported as unanswered.
type SubmitAnswersRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"omitempty,max=500,dive"`
}

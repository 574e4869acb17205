package models

import (
	"fmt"
	"time"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	FillInBlank    QuestionType = "fill_blank"
	Essay          QuestionType = "essay"
	Matching       QuestionType = "matching"
	Coding         QuestionType = "coding"
	FileUpload     QuestionType = "file_upload"
)

// QuestionKind separates auto-gradable questions from the ones that need a human grader.
type QuestionKind int

const (
	KindSubjective QuestionKind = iota
	KindObjective
)

func (t QuestionType) Kind() QuestionKind {
	switch t {
	case SingleChoice, MultipleChoice, TrueFalse:
		return KindObjective
	default:
		return KindSubjective
	}
}

func (t QuestionType) IsObjective() bool {
	return t.Kind() == KindObjective
}

// SingleAnswer reports whether the definition has exactly one correct option.
func (t QuestionType) SingleAnswer() bool {
	return t == SingleChoice || t == TrueFalse
}

func (t QuestionType) IsValid() bool {
	switch t {
	case SingleChoice, MultipleChoice, TrueFalse, FillInBlank, Essay, Matching, Coding, FileUpload:
		return true
	}
	return false
}

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	AssessmentID uint         `json:"assessment_id" gorm:"not null;uniqueIndex:idx_question_order"`
	Text         string       `json:"text" gorm:"type:text;not null"`
	Type         QuestionType `json:"type" gorm:"not null;size:32;index"`
	Points       int          `json:"points" gorm:"not null;default:1"`
	OrderIndex   int          `json:"order_index" gorm:"not null;uniqueIndex:idx_question_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Options []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectOptionIDs returns the ids of the options flagged correct.
func (q *Question) CorrectOptionIDs() []uint {
	ids := make([]uint, 0, 1)
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

func (q *Question) HasOption(id uint) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// ValidateOptions checks the correct-flag invariant for objective questions.
func (q *Question) ValidateOptions() error {
	if !q.Type.IsObjective() {
		return nil
	}
	correct := 0
	for _, o := range q.Options {
		if o.IsCorrect {
			correct++
		}
	}
	switch {
	case q.Type.SingleAnswer() && correct != 1:
		return fmt.Errorf("question %q must have exactly one correct option, has %d", q.Text, correct)
	case q.Type == MultipleChoice && correct < 1:
		return fmt.Errorf("question %q must have at least one correct option", q.Text)
	}
	return nil
}

type Option struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
	OrderIndex int    `json:"order_index" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Option) TableName() string {
	return "question_options"
}

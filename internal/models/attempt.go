package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptExpired    AttemptStatus = "expired"
)

type AssessmentAttempt struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	AssessmentID  uint          `json:"assessment_id" gorm:"not null;index;uniqueIndex:idx_attempts_student_number"`
	StudentID     string        `json:"student_id" gorm:"not null;size:255;index;uniqueIndex:idx_attempts_student_number"`
	BatchID       uint          `json:"batch_id" gorm:"not null;index"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempts_student_number"`
	Status        AttemptStatus `json:"status" gorm:"not null;size:32;default:in_progress;index"`

	// Timing
	StartedAt        time.Time  `json:"started_at" gorm:"not null"`
	ExpiresAt        *time.Time `json:"expires_at"`
	SubmittedAt      *time.Time `json:"submitted_at"`
	TimeTakenMinutes int        `json:"time_taken_minutes"`

	// Scoring, written once at finalization
	Score          int     `json:"score"`
	TotalMarks     int     `json:"total_marks"`
	Percentage     float64 `json:"percentage"`
	Passed         bool    `json:"passed"`
	PassingMarks   *int    `json:"passing_marks"`
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Responses []Response `json:"responses,omitempty" gorm:"foreignKey:AttemptID"`
}

func (AssessmentAttempt) TableName() string {
	return "assessment_attempts"
}

// ExpiredAt reports whether the time limit has passed at now.
func (a *AssessmentAttempt) ExpiredAt(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

type Response struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_response_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_response_attempt_question;index"`

	SelectedOptionIDs datatypes.JSONSlice[uint] `json:"selected_option_ids"`
	TextAnswer        *string                   `json:"text_answer" gorm:"type:text"`

	// Grading; IsCorrect stays nil for answers awaiting manual grading
	IsCorrect    *bool `json:"is_correct"`
	MarksAwarded int   `json:"marks_awarded"`
	MaxMarks     int   `json:"max_marks"`

	CreatedAt time.Time `json:"created_at"`
}

func (Response) TableName() string {
	return "attempt_responses"
}

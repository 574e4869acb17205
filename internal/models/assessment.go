package models

import (
	"time"

	"gorm.io/gorm"
)

type AssessmentType string

const (
	AssessmentQuiz         AssessmentType = "quiz"
	AssessmentAssignment   AssessmentType = "assignment"
	AssessmentExam         AssessmentType = "exam"
	AssessmentFinalExam    AssessmentType = "final_exam"
	AssessmentSurvey       AssessmentType = "survey"
	AssessmentProject      AssessmentType = "project"
	AssessmentPresentation AssessmentType = "presentation"
)

// ScheduleStatus is derived at read time from the assessment window, never stored.
type ScheduleStatus string

const (
	ScheduleUpcoming ScheduleStatus = "upcoming"
	ScheduleActive   ScheduleStatus = "active"
	ScheduleExpired  ScheduleStatus = "expired"
)

func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleUpcoming, ScheduleActive, ScheduleExpired:
		return true
	}
	return false
}

type Assessment struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	BatchID     uint           `json:"batch_id" gorm:"not null;index"`
	LessonID    *uint          `json:"lesson_id" gorm:"index"`
	Title       string         `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string        `json:"description" gorm:"type:text"`
	Type        AssessmentType `json:"type" gorm:"not null;size:32;default:quiz"`

	// Scoring rules
	PassingMarks     *int `json:"passing_marks"`
	TimeLimitMinutes *int `json:"time_limit_minutes"` // nil = unlimited
	MaxAttempts      *int `json:"max_attempts"`       // nil = unlimited

	// Window
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	IsPublished bool `json:"is_published" gorm:"not null;default:false;index"`

	CreatedBy string         `json:"created_by" gorm:"size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Batch     *Batch     `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:RESTRICT"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// TotalMarks is the sum of question points. Questions must be loaded.
func (a *Assessment) TotalMarks() int {
	total := 0
	for _, q := range a.Questions {
		total += q.Points
	}
	return total
}

// ScheduleStatusAt derives the window status. A nil start is already open and
// a nil end never closes.
func (a *Assessment) ScheduleStatusAt(now time.Time) ScheduleStatus {
	if a.StartDate != nil && now.Before(*a.StartDate) {
		return ScheduleUpcoming
	}
	if a.EndDate != nil && now.After(*a.EndDate) {
		return ScheduleExpired
	}
	return ScheduleActive
}

// QuestionByID returns the loaded question with the given id.
func (a *Assessment) QuestionByID(id uint) (*Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i], true
		}
	}
	return nil, false
}

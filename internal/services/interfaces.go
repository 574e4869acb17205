package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type ListAssessmentsQuery = validator.ListAssessmentsQuery
type SubmitAnswersRequest = validator.SubmitAnswersRequest
type AnswerRequest = validator.AnswerRequest

// ===== CATALOG DTOs =====

type CatalogItem struct {
	ID          uint                  `json:"id"`
	Title       string                `json:"title"`
	Description *string               `json:"description,omitempty"`
	Type        models.AssessmentType `json:"type"`
	BatchID     uint                  `json:"batch_id"`
	BatchTitle  string                `json:"batch_title"`
	LessonID    *uint                 `json:"lesson_id,omitempty"`

	QuestionCount    int        `json:"question_count"`
	TotalMarks       int        `json:"total_marks"`
	PassingMarks     *int       `json:"passing_marks"`
	TimeLimitMinutes *int       `json:"time_limit_minutes"`
	MaxAttempts      *int       `json:"max_attempts"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`

	Status         models.ScheduleStatus `json:"status"`
	AttemptSummary AttemptSummary        `json:"attempt_summary"`
}

// AttemptSummary is the learner's own history for one assessment.
type AttemptSummary struct {
	AttemptsCount     int            `json:"attempts_count"`
	BestScore         int            `json:"best_score"`
	LatestAttempt     *LatestAttempt `json:"latest_attempt"`
	RemainingAttempts *int           `json:"remaining_attempts"` // nil = unlimited
	HasActiveAttempt  bool           `json:"has_active_attempt"`
	CanStart          bool           `json:"can_start"`
}

type LatestAttempt struct {
	ID          uint                 `json:"id"`
	Score       int                  `json:"score"`
	Status      models.AttemptStatus `json:"status"`
	SubmittedAt *time.Time           `json:"submitted_at"`
}

type CatalogResponse struct {
	Assessments []*CatalogItem `json:"assessments"`
	Total       int64          `json:"total"`
	Page        int            `json:"page"`
	Size        int            `json:"size"`
}

// ===== ATTEMPT DTOs =====

type AttemptView struct {
	ID               uint                 `json:"id"`
	AssessmentID     uint                 `json:"assessment_id"`
	BatchID          uint                 `json:"batch_id"`
	AttemptNumber    int                  `json:"attempt_number"`
	Status           models.AttemptStatus `json:"status"`
	StartedAt        time.Time            `json:"started_at"`
	ExpiresAt        *time.Time           `json:"expires_at"`
	TimeLimitMinutes *int                 `json:"time_limit_minutes"`
	TotalMarks       int                  `json:"total_marks"`
}

// QuestionForAttempt is the learner view of a question. It has no correct flags.
type QuestionForAttempt struct {
	ID         uint                `json:"id"`
	Text       string              `json:"text"`
	Type       models.QuestionType `json:"type"`
	Points     int                 `json:"points"`
	OrderIndex int                 `json:"order_index"`
	Options    []OptionForAttempt  `json:"options"`
}

type OptionForAttempt struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	OrderIndex int    `json:"order_index"`
}

type StartAttemptResponse struct {
	Attempt   AttemptView          `json:"attempt"`
	Questions []QuestionForAttempt `json:"questions"`
}

type SubmissionResult struct {
	AttemptID        uint      `json:"attempt_id"`
	Score            int       `json:"score"`
	TotalMarks       int       `json:"total_marks"`
	Percentage       float64   `json:"percentage"`
	Passed           bool      `json:"passed"`
	CorrectAnswers   int       `json:"correct_answers"`
	TotalQuestions   int       `json:"total_questions"`
	TimeTakenMinutes int       `json:"time_taken_minutes"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// ===== RESULTS DTOs =====

type AttemptResults struct {
	AttemptID       uint   `json:"attempt_id"`
	AssessmentID    uint   `json:"assessment_id"`
	AssessmentTitle string `json:"assessment_title"`
	AttemptNumber   int    `json:"attempt_number"`

	Score            int        `json:"score"`
	TotalMarks       int        `json:"total_marks"`
	Percentage       float64    `json:"percentage"`
	Passed           bool       `json:"passed"`
	PassingMarks     *int       `json:"passing_marks"`
	StartedAt        time.Time  `json:"started_at"`
	SubmittedAt      *time.Time `json:"submitted_at"`
	TimeTakenMinutes int        `json:"time_taken_minutes"`

	Summary   ResultsSummary   `json:"summary"`
	Questions []QuestionResult `json:"questions"`
}

type ResultsSummary struct {
	TotalQuestions int `json:"total_questions"`
	Answered       int `json:"answered"`
	Unanswered     int `json:"unanswered"`
	Correct        int `json:"correct"`
	PendingReview  int `json:"pending_review"`
}

type QuestionResult struct {
	QuestionID      uint                `json:"question_id"`
	OrderIndex      int                 `json:"order_index"`
	Text            string              `json:"text"`
	Type            models.QuestionType `json:"type"`
	Answered        bool                `json:"answered"`
	SelectedOptions []string            `json:"selected_options"`
	TextAnswer      *string             `json:"text_answer,omitempty"`
	CorrectOptions  []string            `json:"correct_options"`
	IsCorrect       *bool               `json:"is_correct"`
	MarksAwarded    int                 `json:"marks_awarded"`
	MaxMarks        int                 `json:"max_marks"`
}

// ===== EXPORT DTOs =====

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ===== SERVICE INTERFACES =====

type CatalogService interface {
	// ListAssessments returns the published assessments of the learner's active
	// enrollments with the learner's attempt summary.
	ListAssessments(ctx context.Context, userID string, query *ListAssessmentsQuery) (*CatalogResponse, error)
}

type AttemptService interface {
	Start(ctx context.Context, userID string, assessmentID uint) (*StartAttemptResponse, error)
	Submit(ctx context.Context, userID string, attemptID uint, req *SubmitAnswersRequest) (*SubmissionResult, error)

	// ExpireOverdue moves in-progress attempts past their time limit to expired
	ExpireOverdue(ctx context.Context) (int, error)
}

type ResultsService interface {
	GetResults(ctx context.Context, userID string, attemptID uint) (*AttemptResults, error)
}

type ReportService interface {
	ExportAttemptResults(ctx context.Context, userID string, attemptID uint) (*ExportFile, error)
	ExportAssessmentResults(ctx context.Context, assessmentID uint) (*ExportFile, error)
}

// ServiceManager wires and owns the services
type ServiceManager interface {
	Initialize(ctx context.Context) error

	Catalog() CatalogService
	Attempt() AttemptService
	Results() ResultsService
	Report() ReportService
	Sweeper() *AttemptSweeper

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Clock returns the current time. Services read time only through it.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

package services

import (
	"errors"
	"strings"

	"github.com/SAP-F-2025/lms-assessment-service/internal/validator"
)

// ===== SENTINEL ERRORS =====

var (
	// Assessment errors
	ErrAssessmentNotFound = errors.New("assessment not found")

	// Attempt errors
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptNotActive    = errors.New("attempt is not in progress")
	ErrAttemptTimeExpired  = errors.New("attempt time limit has expired")
	ErrAttemptNotCompleted = errors.New("attempt is not completed")
)

// Reasons reported by NotEligibleError
const (
	ReasonNotEnrolled    = "You are not enrolled in this batch"
	ReasonNotStarted     = "Assessment has not started yet"
	ReasonEnded          = "Assessment has ended"
	ReasonMaxAttempts    = "Maximum attempts reached"
	ReasonOngoingAttempt = "An ongoing attempt exists for this assessment"
)

// ===== TYPED ERRORS =====

// NotEligibleError lists every rule that prevents starting an attempt.
type NotEligibleError struct {
	Reasons []string `json:"reasons"`
}

func (e *NotEligibleError) Error() string {
	return "not eligible to start attempt: " + strings.Join(e.Reasons, "; ")
}

// HasReason reports whether reason is among the collected reasons.
func (e *NotEligibleError) HasReason(reason string) bool {
	for _, r := range e.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

func NewNotEligibleError(reasons ...string) *NotEligibleError {
	return &NotEligibleError{Reasons: reasons}
}

// ValidationErrors is the field level error returned for malformed input
type ValidationErrors = validator.ValidationErrors
type ValidationError = validator.ValidationError

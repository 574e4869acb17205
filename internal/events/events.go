package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	AttemptStarted   EventType = "attempt.started"
	AttemptCompleted EventType = "attempt.completed"
	AttemptExpired   EventType = "attempt.expired"
)

const (
	EventSource  = "assessment-service"
	EventVersion = "1.0"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// AttemptEvent is the payload of every attempt.* event. Score fields are only
// set on completion.
type AttemptEvent struct {
	AttemptID     uint       `json:"attempt_id"`
	AssessmentID  uint       `json:"assessment_id"`
	BatchID       uint       `json:"batch_id"`
	StudentID     string     `json:"student_id"`
	AttemptNumber int        `json:"attempt_number"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	Score         *int       `json:"score,omitempty"`
	TotalMarks    *int       `json:"total_marks,omitempty"`
	Percentage    *float64   `json:"percentage,omitempty"`
	Passed        *bool      `json:"passed,omitempty"`
}

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

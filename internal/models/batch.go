package models

import "time"

// Batch is a scheduled cohort of a course. Owned by the course workflow; read here
// for enrollment scoping and title lookups.
type Batch struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CourseID  uint      `json:"course_id" gorm:"index"`
	Title     string    `json:"title" gorm:"not null;size:200"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Batch) TableName() string {
	return "batches"
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

type Enrollment struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	UserID     string           `json:"user_id" gorm:"not null;size:255;index:idx_enrollment_user_batch"`
	BatchID    uint             `json:"batch_id" gorm:"not null;index:idx_enrollment_user_batch"`
	Status     EnrollmentStatus `json:"status" gorm:"not null;size:32;default:active"`
	EnrolledAt time.Time        `json:"enrolled_at"`
	ExpiresAt  *time.Time       `json:"expires_at"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) IsActiveAt(now time.Time) bool {
	if e.Status != EnrollmentActive {
		return false
	}
	return e.ExpiresAt == nil || now.Before(*e.ExpiresAt)
}

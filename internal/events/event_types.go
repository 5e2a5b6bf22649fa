package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/hrportal/attendance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserOnboarded          EventType = "user_onboarded"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventAttendanceMarked       EventType = "attendance_marked"
	EventAttendanceReviewed     EventType = "attendance_reviewed"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id.
func NewEvent(eventType EventType, subjectID string, actor Actor, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: at,
		Payload:   payload,
	}
}

// UserOnboardedPayload carries the initial credentials for the welcome mail.
type UserOnboardedPayload struct {
	Email           string      `json:"email"`
	FullName        string      `json:"full_name"`
	EmployeeID      string      `json:"employee_id"`
	Role            domain.Role `json:"role"`
	DefaultPassword string      `json:"-"`
}

// PasswordResetRequestedPayload payload.
type PasswordResetRequestedPayload struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	ResetLink string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AttendanceMarkedPayload payload.
type AttendanceMarkedPayload struct {
	RecordID       string                `json:"record_id"`
	Date           string                `json:"date"`
	AttendanceType domain.AttendanceType `json:"attendance_type"`
	Late           bool                  `json:"late"`
	MarkedByAdmin  bool                  `json:"marked_by_admin"`
}

// AttendanceReviewedPayload payload.
type AttendanceReviewedPayload struct {
	RecordID string                  `json:"record_id"`
	Date     string                  `json:"date"`
	Status   domain.AttendanceStatus `json:"status"`
	Email    string                  `json:"email"`
	FullName string                  `json:"full_name"`
}

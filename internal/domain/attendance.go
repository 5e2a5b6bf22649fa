package domain

import "time"

// AttendanceType is derived by the evaluator, never supplied by users.
type AttendanceType string

const (
	AttendanceFullDay AttendanceType = "Full Day"
	AttendanceHalfDay AttendanceType = "Half Day"
	AttendanceAbsent  AttendanceType = "Absent"
)

// AttendanceStatus tracks the approval lifecycle.
type AttendanceStatus string

const (
	AttendanceStatusPending  AttendanceStatus = "pending"
	AttendanceStatusApproved AttendanceStatus = "approved"
	AttendanceStatusRejected AttendanceStatus = "rejected"
)

// ParseAttendanceStatus validates a status string.
func ParseAttendanceStatus(raw string) (AttendanceStatus, bool) {
	switch AttendanceStatus(raw) {
	case AttendanceStatusPending, AttendanceStatusApproved, AttendanceStatusRejected:
		return AttendanceStatus(raw), true
	}
	return "", false
}

// AttendanceRecord is one record per (user, calendar day).
type AttendanceRecord struct {
	ID             string
	UserID         string
	Date           time.Time
	StartTime      *string
	EndTime        *string
	AttendanceType AttendanceType
	Late           bool
	Status         AttendanceStatus
	ApprovedBy     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AttendanceView pairs a record with the owning and approving users.
type AttendanceView struct {
	Record     AttendanceRecord
	User       UserSummary
	ApprovedBy *UserSummary
}

// DateLayout is the wire format of attendance dates.
const DateLayout = "2006-01-02"

// NormalizeDate truncates t to midnight UTC of the same calendar day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(parsed), nil
}

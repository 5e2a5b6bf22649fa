package dto

import (
	"time"

	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/service"
)

// MarkAttendanceRequest payload for self and admin marking.
type MarkAttendanceRequest struct {
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Leave     bool   `json:"leave"`
}

// ReviewAttendanceRequest payload.
type ReviewAttendanceRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// EvaluationResponse mirrors the evaluator result.
type EvaluationResponse struct {
	Allowed        bool   `json:"allowed"`
	AttendanceType string `json:"attendanceType"`
	Late           bool   `json:"late"`
}

// AttendanceResponse is a stored record.
type AttendanceResponse struct {
	ID             string               `json:"id"`
	UserID         string               `json:"userId"`
	Date           string               `json:"date"`
	StartTime      *string              `json:"startTime"`
	EndTime        *string              `json:"endTime"`
	AttendanceType string               `json:"attendanceType"`
	Late           bool                 `json:"late"`
	Status         string               `json:"status"`
	ApprovedByID   *string              `json:"approvedById,omitempty"`
	User           *UserSummaryResponse `json:"user,omitempty"`
	ApprovedBy     *UserSummaryResponse `json:"approvedBy,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// NewAttendanceResponse maps a bare record.
func NewAttendanceResponse(r *domain.AttendanceRecord) AttendanceResponse {
	return AttendanceResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		Date:           r.Date.Format(domain.DateLayout),
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		AttendanceType: string(r.AttendanceType),
		Late:           r.Late,
		Status:         string(r.Status),
		ApprovedByID:   r.ApprovedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// NewAttendanceViewResponses maps records with their user summaries.
func NewAttendanceViewResponses(views []domain.AttendanceView) []AttendanceResponse {
	result := make([]AttendanceResponse, 0, len(views))
	for i := range views {
		resp := NewAttendanceResponse(&views[i].Record)
		user := NewUserSummaryResponse(views[i].User)
		resp.User = &user
		if views[i].ApprovedBy != nil {
			approver := NewUserSummaryResponse(*views[i].ApprovedBy)
			resp.ApprovedBy = &approver
		}
		result = append(result, resp)
	}
	return result
}

// MarkAttendanceResponse reports the stored record and its evaluation.
type MarkAttendanceResponse struct {
	Message    string             `json:"message"`
	Attendance AttendanceResponse `json:"attendance"`
	Evaluation EvaluationResponse `json:"evaluation"`
}

// NewMarkAttendanceResponse maps a mark result.
func NewMarkAttendanceResponse(res *service.MarkResult, leave bool) MarkAttendanceResponse {
	message := "Attendance marked successfully"
	if leave {
		message = "Leave marked successfully"
	}
	return MarkAttendanceResponse{
		Message:    message,
		Attendance: NewAttendanceResponse(res.Record),
		Evaluation: EvaluationResponse{
			Allowed:        res.Evaluation.Allowed,
			AttendanceType: string(res.Evaluation.Type),
			Late:           res.Evaluation.Late,
		},
	}
}

// CalendarEntryResponse is one day of the personal calendar.
type CalendarEntryResponse struct {
	Date           string  `json:"date"`
	StartTime      *string `json:"startTime"`
	EndTime        *string `json:"endTime"`
	AttendanceType string  `json:"attendanceType"`
	Status         string  `json:"status"`
}

// NewCalendarResponses maps calendar entries.
func NewCalendarResponses(entries []service.CalendarEntry) []CalendarEntryResponse {
	result := make([]CalendarEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, CalendarEntryResponse{
			Date:           e.Date,
			StartTime:      e.StartTime,
			EndTime:        e.EndTime,
			AttendanceType: string(e.AttendanceType),
			Status:         string(e.Status),
		})
	}
	return result
}

package dto

import "github.com/hrportal/attendance-service/internal/service"

// DashboardStatsResponse payload.
type DashboardStatsResponse struct {
	TotalUsers      int64 `json:"totalUsers"`
	ActiveToday     int64 `json:"activeToday"`
	PendingRequests int64 `json:"pendingRequests"`
}

// RoleCountResponse is one role bucket.
type RoleCountResponse struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// MonthlySignupsResponse is one month of signups.
type MonthlySignupsResponse struct {
	Month string `json:"month"`
	Users int64  `json:"users"`
}

// MonthlyAttendanceResponse is one month of review outcomes.
type MonthlyAttendanceResponse struct {
	Month    string `json:"month"`
	Approved int64  `json:"approved"`
	Rejected int64  `json:"rejected"`
	Pending  int64  `json:"pending"`
}

// AnalyticsUserResponse is the compact user row of the analytics report.
type AnalyticsUserResponse struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	EmployeeID string `json:"employeeId,omitempty"`
}

// AnalyticsResponse payload.
type AnalyticsResponse struct {
	Year              int                         `json:"year"`
	TotalUsers        int64                       `json:"totalUsers"`
	RoleWise          []RoleCountResponse         `json:"roleWise"`
	MonthlySignups    []MonthlySignupsResponse    `json:"monthlySignups"`
	MonthlyAttendance []MonthlyAttendanceResponse `json:"monthlyAttendance"`
	UsersByRole       []AnalyticsUserResponse     `json:"usersByRole"`
}

// NewAnalyticsResponse maps the report.
func NewAnalyticsResponse(a *service.Analytics) AnalyticsResponse {
	resp := AnalyticsResponse{
		Year:              a.Year,
		TotalUsers:        a.TotalUsers,
		RoleWise:          make([]RoleCountResponse, 0, len(a.RoleWise)),
		MonthlySignups:    make([]MonthlySignupsResponse, 0, len(a.MonthlySignups)),
		MonthlyAttendance: make([]MonthlyAttendanceResponse, 0, len(a.MonthlyAttendance)),
		UsersByRole:       make([]AnalyticsUserResponse, 0, len(a.Users)),
	}
	for _, rc := range a.RoleWise {
		resp.RoleWise = append(resp.RoleWise, RoleCountResponse{Role: string(rc.Role), Count: rc.Count})
	}
	for _, m := range a.MonthlySignups {
		resp.MonthlySignups = append(resp.MonthlySignups, MonthlySignupsResponse{Month: m.Month, Users: m.Users})
	}
	for _, m := range a.MonthlyAttendance {
		resp.MonthlyAttendance = append(resp.MonthlyAttendance, MonthlyAttendanceResponse{
			Month:    m.Month,
			Approved: m.Approved,
			Rejected: m.Rejected,
			Pending:  m.Pending,
		})
	}
	for _, u := range a.Users {
		resp.UsersByRole = append(resp.UsersByRole, AnalyticsUserResponse{
			ID:         u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Email:      u.Email,
			Role:       string(u.Role),
			EmployeeID: u.EmployeeID,
		})
	}
	return resp
}

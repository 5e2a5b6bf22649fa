package service

import (
	"context"
	"sort"
	"time"

	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/repository"
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ReportService aggregates dashboard figures.
type ReportService struct {
	users   repository.UserRepository
	records repository.AttendanceRepository
	now     Clock
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	UserRepo       repository.UserRepository
	AttendanceRepo repository.AttendanceRepository
	Now            Clock
}

// DashboardStats are the headline counters.
type DashboardStats struct {
	TotalUsers      int64
	ActiveToday     int64
	PendingRequests int64
}

// RoleCount is the head count of one role.
type RoleCount struct {
	Role  domain.Role
	Count int64
}

// MonthlySignups counts users created in a month.
type MonthlySignups struct {
	Month string
	Users int64
}

// MonthlyAttendance counts records per status in a month.
type MonthlyAttendance struct {
	Month    string
	Approved int64
	Rejected int64
	Pending  int64
}

// Analytics is the yearly report.
type Analytics struct {
	Year              int
	TotalUsers        int64
	RoleWise          []RoleCount
	MonthlySignups    []MonthlySignups
	MonthlyAttendance []MonthlyAttendance
	Users             []domain.User
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	return &ReportService{
		users:   deps.UserRepo,
		records: deps.AttendanceRepo,
		now:     clockOrDefault(deps.Now),
	}
}

// DashboardStats counts active users, today's worked days and pending reviews.
func (s *ReportService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	total, err := s.users.Count(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}

	today := domain.NormalizeDate(s.now())
	active, err := s.records.Count(ctx, repository.AttendanceFilter{
		DateFrom: &today,
		Types:    []domain.AttendanceType{domain.AttendanceFullDay, domain.AttendanceHalfDay},
	})
	if err != nil {
		return nil, err
	}

	pendingStatus := domain.AttendanceStatusPending
	pending, err := s.records.Count(ctx, repository.AttendanceFilter{Status: &pendingStatus})
	if err != nil {
		return nil, err
	}
	return &DashboardStats{TotalUsers: total, ActiveToday: active, PendingRequests: pending}, nil
}

// Analytics builds the yearly report. A non-positive year means the
// current one.
func (s *ReportService) Analytics(ctx context.Context, year int) (*Analytics, error) {
	if year <= 0 {
		year = s.now().Year()
	}

	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	signups, err := s.users.MonthlySignups(ctx, year)
	if err != nil {
		return nil, err
	}
	statuses, err := s.records.MonthlyStatusCounts(ctx, year)
	if err != nil {
		return nil, err
	}

	return &Analytics{
		Year:              year,
		TotalUsers:        int64(len(users)),
		RoleWise:          roleWise(byRole),
		MonthlySignups:    signupBuckets(signups),
		MonthlyAttendance: attendanceBuckets(statuses),
		Users:             users,
	}, nil
}

func roleWise(counts map[domain.Role]int64) []RoleCount {
	result := make([]RoleCount, 0, len(counts))
	for role, count := range counts {
		result = append(result, RoleCount{Role: role, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Role.Seniority() < result[j].Role.Seniority()
	})
	return result
}

func signupBuckets(counts map[int]int64) []MonthlySignups {
	result := make([]MonthlySignups, 12)
	for i := range result {
		result[i] = MonthlySignups{Month: monthNames[i], Users: counts[int(time.January)+i]}
	}
	return result
}

func attendanceBuckets(counts map[int]map[domain.AttendanceStatus]int64) []MonthlyAttendance {
	result := make([]MonthlyAttendance, 12)
	for i := range result {
		month := counts[int(time.January)+i]
		result[i] = MonthlyAttendance{
			Month:    monthNames[i],
			Approved: month[domain.AttendanceStatusApproved],
			Rejected: month[domain.AttendanceStatusRejected],
			Pending:  month[domain.AttendanceStatusPending],
		}
	}
	return result
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hrportal/attendance-service/internal/attendance"
	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/events"
	"github.com/hrportal/attendance-service/internal/repository"
	apperrors "github.com/hrportal/attendance-service/pkg/util"
)

// adminMarkRoles may record attendance on behalf of a subordinate.
var adminMarkRoles = []domain.Role{domain.RoleSuperAdmin, domain.RoleHR, domain.RoleTechManager}

// AttendanceService records, lists and reviews daily attendance.
type AttendanceService struct {
	records    repository.AttendanceRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// AttendanceDependencies bundles collaborators for the attendance service.
type AttendanceDependencies struct {
	AttendanceRepo repository.AttendanceRepository
	UserRepo       repository.UserRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Now            Clock
}

// MarkInput is one day's submission.
type MarkInput struct {
	Date      string
	StartTime string
	EndTime   string
	Leave     bool
}

// MarkResult pairs the stored record with its evaluation.
type MarkResult struct {
	Record     *domain.AttendanceRecord
	Evaluation attendance.Evaluation
}

// QueueFilter narrows the approval queue and exports. Empty or "all"
// values mean no constraint.
type QueueFilter struct {
	Name   string
	Role   string
	Status string
	Date   string
}

// CalendarEntry is a trimmed record for the personal calendar.
type CalendarEntry struct {
	Date           string
	StartTime      *string
	EndTime        *string
	AttendanceType domain.AttendanceType
	Status         domain.AttendanceStatus
}

// NewAttendanceService constructs the service.
func NewAttendanceService(deps AttendanceDependencies) *AttendanceService {
	return &AttendanceService{
		records:    deps.AttendanceRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrDefault(deps.Now),
	}
}

// Mark records the actor's own attendance for a day.
func (s *AttendanceService) Mark(ctx context.Context, actor *domain.User, in MarkInput) (*MarkResult, error) {
	return s.mark(ctx, actor, actor, in, false)
}

// AdminMark records attendance for a subordinate.
func (s *AttendanceService) AdminMark(ctx context.Context, actor *domain.User, userID string, in MarkInput) (*MarkResult, error) {
	if !containsRole(adminMarkRoles, actor.Role) {
		return nil, apperrors.NewForbidden("Forbidden")
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(in.Date) == "" {
		return nil, apperrors.NewValidationError("Missing required fields", nil)
	}
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	if target.IsDeleted {
		return nil, apperrors.NewNotFound("User", nil)
	}
	if !domain.CanView(actor.Role, target.Role) {
		return nil, apperrors.NewForbidden("Not allowed to mark attendance for this role")
	}
	return s.mark(ctx, actor, target, in, true)
}

func (s *AttendanceService) mark(ctx context.Context, actor, subject *domain.User, in MarkInput, byAdmin bool) (*MarkResult, error) {
	date, err := s.parseMarkDate(in.Date)
	if err != nil {
		return nil, err
	}

	var eval attendance.Evaluation
	record := &domain.AttendanceRecord{UserID: subject.ID, Date: date}
	if in.Leave {
		eval = attendance.Leave()
	} else {
		start, end := strings.TrimSpace(in.StartTime), strings.TrimSpace(in.EndTime)
		if start == "" || end == "" {
			return nil, apperrors.NewValidationError("Start and End time required", nil)
		}
		eval = attendance.Evaluate(start, end)
		if !eval.Allowed {
			return nil, apperrors.NewValidationError(eval.Reason, map[string]any{
				"startTime": start,
				"endTime":   end,
			})
		}
		record.StartTime = &start
		record.EndTime = &end
	}
	record.AttendanceType = eval.Type
	record.Late = eval.Late

	if err := s.records.Upsert(ctx, record); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventAttendanceMarked, subject.ID,
		events.Actor{UserID: actor.ID, Role: actor.Role}, s.now(),
		events.AttendanceMarkedPayload{
			RecordID:       record.ID,
			Date:           record.Date.Format(domain.DateLayout),
			AttendanceType: record.AttendanceType,
			Late:           record.Late,
			MarkedByAdmin:  byAdmin,
		}))

	return &MarkResult{Record: record, Evaluation: eval}, nil
}

func (s *AttendanceService) parseMarkDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperrors.NewValidationError("Date is required", nil)
	}
	date, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("Invalid date", map[string]any{"date": raw})
	}
	if date.After(domain.NormalizeDate(s.now())) {
		return time.Time{}, apperrors.NewValidationError("Future date attendance not allowed", map[string]any{"date": raw})
	}
	return date, nil
}

// List returns own records for employees and interns, and records of all
// viewable roles for everyone else. Newest first.
func (s *AttendanceService) List(ctx context.Context, actor *domain.User) ([]domain.AttendanceView, error) {
	if actor.Role == domain.RoleEmployee || actor.Role == domain.RoleIntern {
		records, err := s.records.List(ctx, repository.AttendanceFilter{UserIDs: []string{actor.ID}})
		if err != nil {
			return nil, err
		}
		return s.views(ctx, records, map[string]domain.User{actor.ID: *actor})
	}
	return s.scopedViews(ctx, repository.UserFilter{Roles: domain.ViewableRoles(actor.Role)}, repository.AttendanceFilter{})
}

// ApprovalQueue lists subordinate records for review.
func (s *AttendanceService) ApprovalQueue(ctx context.Context, actor *domain.User, filter QueueFilter) ([]domain.AttendanceView, error) {
	viewable := domain.ViewableRoles(actor.Role)
	if len(viewable) == 0 {
		return nil, apperrors.NewForbidden("Access denied")
	}
	userFilter, recordFilter, err := buildScope(viewable, filter)
	if err != nil {
		return nil, err
	}
	if userFilter == nil {
		return []domain.AttendanceView{}, nil
	}
	recordFilter.Order = repository.OrderRecentlySubmitted
	return s.scopedViews(ctx, *userFilter, recordFilter)
}

// Review approves or rejects a subordinate's record.
func (s *AttendanceService) Review(ctx context.Context, actor *domain.User, recordID, status string) (*domain.AttendanceRecord, error) {
	if !domain.CanManageOthers(actor.Role) {
		return nil, apperrors.NewForbidden("Forbidden")
	}
	next, ok := domain.ParseAttendanceStatus(status)
	if strings.TrimSpace(recordID) == "" || !ok || next == domain.AttendanceStatusPending {
		return nil, apperrors.NewValidationError("Invalid request", nil)
	}

	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, notFound(err, "Attendance")
	}
	owner, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, notFound(err, "Attendance")
	}
	if !domain.CanApprove(actor.Role, owner.Role) {
		return nil, apperrors.NewForbidden("Not allowed to approve this role")
	}

	if err := s.records.UpdateStatus(ctx, record.ID, next, actor.ID, record.UpdatedAt); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, apperrors.NewConflict("Attendance was resubmitted, reload before reviewing", nil)
		}
		return nil, notFound(err, "Attendance")
	}
	approver := actor.ID
	record.Status = next
	record.ApprovedBy = &approver

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventAttendanceReviewed, owner.ID,
		events.Actor{UserID: actor.ID, Role: actor.Role}, s.now(),
		events.AttendanceReviewedPayload{
			RecordID: record.ID,
			Date:     record.Date.Format(domain.DateLayout),
			Status:   next,
			Email:    owner.Email,
			FullName: owner.FullName(),
		}))

	return record, nil
}

// MyCalendar returns the user's own records, oldest first.
func (s *AttendanceService) MyCalendar(ctx context.Context, userID string) ([]CalendarEntry, error) {
	records, err := s.records.List(ctx, repository.AttendanceFilter{UserIDs: []string{userID}, Order: repository.OrderOldestDate})
	if err != nil {
		return nil, err
	}
	entries := make([]CalendarEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, CalendarEntry{
			Date:           r.Date.Format(domain.DateLayout),
			StartTime:      r.StartTime,
			EndTime:        r.EndTime,
			AttendanceType: r.AttendanceType,
			Status:         r.Status,
		})
	}
	return entries, nil
}

// scopedViews resolves the users matching userFilter, then their records.
func (s *AttendanceService) scopedViews(ctx context.Context, userFilter repository.UserFilter, recordFilter repository.AttendanceFilter) ([]domain.AttendanceView, error) {
	users, err := s.users.List(ctx, userFilter)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return []domain.AttendanceView{}, nil
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
		recordFilter.UserIDs = append(recordFilter.UserIDs, u.ID)
	}
	records, err := s.records.List(ctx, recordFilter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, records, byID)
}

// views attaches owner and approver summaries. Records whose owner is not
// in known are looked up individually.
func (s *AttendanceService) views(ctx context.Context, records []domain.AttendanceRecord, known map[string]domain.User) ([]domain.AttendanceView, error) {
	cache := make(map[string]*domain.User, len(known))
	for id := range known {
		u := known[id]
		cache[id] = &u
	}
	lookup := func(id string) (*domain.User, error) {
		if u, ok := cache[id]; ok {
			return u, nil
		}
		u, err := s.users.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			cache[id] = nil
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		cache[id] = u
		return u, nil
	}

	result := make([]domain.AttendanceView, 0, len(records))
	for _, r := range records {
		owner, err := lookup(r.UserID)
		if err != nil {
			return nil, err
		}
		view := domain.AttendanceView{Record: r}
		if owner != nil {
			view.User = owner.Summary()
		}
		if r.ApprovedBy != nil {
			approver, err := lookup(*r.ApprovedBy)
			if err != nil {
				return nil, err
			}
			if approver != nil {
				summary := approver.Summary()
				view.ApprovedBy = &summary
			}
		}
		result = append(result, view)
	}
	return result, nil
}

// buildScope turns a queue filter into repository filters limited to the
// viewable roles. A nil user filter means the scope is empty.
func buildScope(viewable []domain.Role, filter QueueFilter) (*repository.UserFilter, repository.AttendanceFilter, error) {
	var recordFilter repository.AttendanceFilter
	userFilter := &repository.UserFilter{Roles: viewable, NameContains: strings.TrimSpace(filter.Name)}

	if raw := strings.TrimSpace(filter.Role); raw != "" && raw != "all" {
		role, ok := domain.ParseRole(raw)
		if !ok {
			return nil, recordFilter, apperrors.NewValidationError("Invalid role", map[string]any{"role": raw})
		}
		if !containsRole(viewable, role) {
			return nil, recordFilter, nil
		}
		userFilter.Roles = []domain.Role{role}
	}
	if raw := strings.TrimSpace(filter.Status); raw != "" && raw != "all" {
		status, ok := domain.ParseAttendanceStatus(raw)
		if !ok {
			return nil, recordFilter, apperrors.NewValidationError("Invalid status", map[string]any{"status": raw})
		}
		recordFilter.Status = &status
	}
	if raw := strings.TrimSpace(filter.Date); raw != "" {
		date, err := domain.ParseDate(raw)
		if err != nil {
			return nil, recordFilter, apperrors.NewValidationError("Invalid date", map[string]any{"date": raw})
		}
		recordFilter.Date = &date
	}
	return userFilter, recordFilter, nil
}

func containsRole(set []domain.Role, role domain.Role) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

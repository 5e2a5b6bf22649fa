package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hrportal/attendance-service/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale is returned when a conditional write finds the record was
	// modified after it was read.
	ErrStale = errors.New("record modified concurrently")
)

// EmployeeIDCounter names the sequence used for employee ids.
const EmployeeIDCounter = "employeeId"

// UserFilter narrows user listings. Zero values mean "no constraint".
type UserFilter struct {
	Roles          []domain.Role
	ExcludeRoles   []domain.Role
	EmployeeIDs    []string
	ExcludeID      string
	NameContains   string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// UserRepository defines persistence access for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	CountByRole(ctx context.Context) (map[domain.Role]int64, error)
	MonthlySignups(ctx context.Context, year int) (map[int]int64, error)
}

// AttendanceFilter narrows attendance listings. An empty UserIDs slice
// means "any user"; callers scoping to a set of users must short-circuit an
// empty set themselves.
type AttendanceFilter struct {
	UserIDs  []string
	Status   *domain.AttendanceStatus
	Date     *time.Time
	DateFrom *time.Time
	DateTo   *time.Time
	Types    []domain.AttendanceType
	Order    AttendanceOrder
}

// AttendanceOrder selects how List sorts records.
type AttendanceOrder int

const (
	// OrderNewestDate sorts by date descending, ties by creation time.
	OrderNewestDate AttendanceOrder = iota
	// OrderOldestDate sorts by date ascending.
	OrderOldestDate
	// OrderRecentlySubmitted sorts by creation time descending.
	OrderRecentlySubmitted
)

// AttendanceRepository stores one record per (user, day).
type AttendanceRepository interface {
	// Upsert inserts or replaces the record keyed by (UserID, Date) in a
	// single atomic write. Status is reset to pending and ApprovedBy cleared.
	Upsert(ctx context.Context, record *domain.AttendanceRecord) error
	GetByID(ctx context.Context, id string) (*domain.AttendanceRecord, error)
	// UpdateStatus applies only while the stored UpdatedAt still equals
	// readAt, otherwise it returns ErrStale.
	UpdateStatus(ctx context.Context, id string, status domain.AttendanceStatus, approvedBy string, readAt time.Time) error
	List(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceRecord, error)
	Count(ctx context.Context, filter AttendanceFilter) (int64, error)
	MonthlyStatusCounts(ctx context.Context, year int) (map[int]map[domain.AttendanceStatus]int64, error)
}

// ManagerMappingRepository links employees to their managers.
type ManagerMappingRepository interface {
	Upsert(ctx context.Context, mapping *domain.ManagerMapping) error
	GetByEmployee(ctx context.Context, employeeEmpID string) (*domain.ManagerMapping, error)
	ListByManager(ctx context.Context, managerEmpID string) ([]domain.ManagerMapping, error)
}

// CounterRepository issues monotonically increasing sequence values.
type CounterRepository interface {
	// Next increments the named counter and returns the new value. A counter
	// that does not exist yet starts at start, so the first value is start+1.
	Next(ctx context.Context, name string, start int64) (int64, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Users      UserRepository
	Attendance AttendanceRepository
	Mappings   ManagerMappingRepository
	Counters   CounterRepository
}

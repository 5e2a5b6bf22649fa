// Package memory implements the repositories in process memory. It backs
// the "memory" storage driver used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/repository"
)

// NewStore returns a fresh, empty store. A nil now defaults to time.Now.
func NewStore(now func() time.Time) repository.Store {
	if now == nil {
		now = time.Now
	}
	return repository.Store{
		Users:      &UserRepository{now: now},
		Attendance: &AttendanceRepository{now: now},
		Mappings:   &MappingRepository{mappings: map[string]domain.ManagerMapping{}, now: now},
		Counters:   &CounterRepository{values: map[string]int64{}},
	}
}

// UserRepository keeps users in insertion order.
type UserRepository struct {
	mu    sync.RWMutex
	users []*domain.User
	now   func() time.Time
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) || (user.EmployeeID != "" && u.EmployeeID == user.EmployeeID) {
			return repository.ErrDuplicate
		}
	}
	now := r.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	r.users = append(r.users, &cp)
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID != user.ID && strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	for i, u := range r.users {
		if u.ID == user.ID {
			user.UpdatedAt = r.now().UTC()
			cp := *user
			r.users[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) GetByEmployeeID(_ context.Context, employeeID string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.EmployeeID == employeeID })
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.User{}
	for _, u := range r.users {
		if matchUser(u, filter) {
			result = append(result, *u)
		}
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []domain.User{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *UserRepository) Count(ctx context.Context, filter repository.UserFilter) (int64, error) {
	filter.Limit, filter.Offset = 0, 0
	users, err := r.List(ctx, filter)
	return int64(len(users)), err
}

func (r *UserRepository) CountByRole(ctx context.Context) (map[domain.Role]int64, error) {
	users, err := r.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}
	counts := map[domain.Role]int64{}
	for _, u := range users {
		counts[u.Role]++
	}
	return counts, nil
}

func (r *UserRepository) MonthlySignups(ctx context.Context, year int) (map[int]int64, error) {
	users, err := r.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}
	counts := map[int]int64{}
	for _, u := range users {
		if u.CreatedAt.Year() == year {
			counts[int(u.CreatedAt.Month())]++
		}
	}
	return counts, nil
}

func matchUser(u *domain.User, f repository.UserFilter) bool {
	switch {
	case u.IsDeleted && !f.IncludeDeleted:
		return false
	case len(f.Roles) > 0 && !hasRole(f.Roles, u.Role):
		return false
	case hasRole(f.ExcludeRoles, u.Role):
		return false
	case len(f.EmployeeIDs) > 0 && !hasString(f.EmployeeIDs, u.EmployeeID):
		return false
	case f.ExcludeID != "" && u.ID == f.ExcludeID:
		return false
	case f.NameContains != "" && !strings.Contains(strings.ToLower(u.FirstName), strings.ToLower(f.NameContains)):
		return false
	}
	return true
}

// AttendanceRepository keys records by (user, date).
type AttendanceRepository struct {
	mu      sync.RWMutex
	records []*domain.AttendanceRecord
	now     func() time.Time
}

func (r *AttendanceRepository) Upsert(_ context.Context, record *domain.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	record.Status = domain.AttendanceStatusPending
	record.ApprovedBy = nil
	record.UpdatedAt = now
	for i, existing := range r.records {
		if existing.UserID == record.UserID && existing.Date.Equal(record.Date) {
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
			cp := *record
			r.records[i] = &cp
			return nil
		}
	}
	record.ID = uuid.NewString()
	record.CreatedAt = now
	cp := *record
	r.records = append(r.records, &cp)
	return nil
}

func (r *AttendanceRepository) GetByID(_ context.Context, id string) (*domain.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AttendanceRepository) UpdateStatus(_ context.Context, id string, status domain.AttendanceStatus, approvedBy string, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			if !rec.UpdatedAt.Equal(readAt) {
				return repository.ErrStale
			}
			approver := approvedBy
			rec.Status = status
			rec.ApprovedBy = &approver
			rec.UpdatedAt = r.now().UTC()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *AttendanceRepository) List(_ context.Context, filter repository.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.AttendanceRecord{}
	for _, rec := range r.records {
		if matchRecord(rec, filter) {
			result = append(result, *rec)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		switch filter.Order {
		case repository.OrderOldestDate:
			return result[i].Date.Before(result[j].Date)
		case repository.OrderRecentlySubmitted:
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *AttendanceRepository) Count(ctx context.Context, filter repository.AttendanceFilter) (int64, error) {
	records, err := r.List(ctx, filter)
	return int64(len(records)), err
}

func (r *AttendanceRepository) MonthlyStatusCounts(ctx context.Context, year int) (map[int]map[domain.AttendanceStatus]int64, error) {
	records, err := r.List(ctx, repository.AttendanceFilter{})
	if err != nil {
		return nil, err
	}
	counts := map[int]map[domain.AttendanceStatus]int64{}
	for _, rec := range records {
		if rec.Date.Year() != year {
			continue
		}
		month := int(rec.Date.Month())
		if counts[month] == nil {
			counts[month] = map[domain.AttendanceStatus]int64{}
		}
		counts[month][rec.Status]++
	}
	return counts, nil
}

func matchRecord(rec *domain.AttendanceRecord, f repository.AttendanceFilter) bool {
	switch {
	case len(f.UserIDs) > 0 && !hasString(f.UserIDs, rec.UserID):
		return false
	case f.Status != nil && rec.Status != *f.Status:
		return false
	case f.Date != nil && !rec.Date.Equal(*f.Date):
		return false
	case f.DateFrom != nil && rec.Date.Before(*f.DateFrom):
		return false
	case f.DateTo != nil && !rec.Date.Before(*f.DateTo):
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == rec.AttendanceType {
			return true
		}
	}
	return false
}

// MappingRepository keys mappings by the employee's employee id.
type MappingRepository struct {
	mu       sync.RWMutex
	mappings map[string]domain.ManagerMapping
	now      func() time.Time
}

func (r *MappingRepository) Upsert(_ context.Context, mapping *domain.ManagerMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	if existing, ok := r.mappings[mapping.EmployeeEmpID]; ok {
		mapping.ID = existing.ID
		mapping.CreatedAt = existing.CreatedAt
	} else {
		mapping.ID = uuid.NewString()
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now
	r.mappings[mapping.EmployeeEmpID] = *mapping
	return nil
}

func (r *MappingRepository) GetByEmployee(_ context.Context, employeeEmpID string) (*domain.ManagerMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mapping, ok := r.mappings[employeeEmpID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &mapping, nil
}

func (r *MappingRepository) ListByManager(_ context.Context, managerEmpID string) ([]domain.ManagerMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.ManagerMapping{}
	for _, mapping := range r.mappings {
		if mapping.ManagerEmpID == managerEmpID {
			result = append(result, mapping)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// CounterRepository holds named sequences.
type CounterRepository struct {
	mu     sync.Mutex
	values map[string]int64
}

func (r *CounterRepository) Next(_ context.Context, name string, start int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[name]
	if !ok {
		v = start
	}
	v++
	r.values[name] = v
	return v, nil
}

// TokenStore implements both token stores without expiry enforcement.
type TokenStore struct {
	mu      sync.Mutex
	resets  map[string]string
	revoked map[string]struct{}
}

// NewTokenStore returns an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{resets: map[string]string{}, revoked: map[string]struct{}{}}
}

func (s *TokenStore) Save(_ context.Context, token, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[token] = userID
	return nil
}

func (s *TokenStore) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.resets[token]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(s.resets, token)
	return userID, nil
}

// PendingResets reports how many reset tokens are outstanding.
func (s *TokenStore) PendingResets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resets)
}

func (s *TokenStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = struct{}{}
	return nil
}

func (s *TokenStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok, nil
}

func hasRole(set []domain.Role, role domain.Role) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

func hasString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/hrportal/attendance-service/internal/auth"
	"github.com/hrportal/attendance-service/internal/config"
	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/events"
	"github.com/hrportal/attendance-service/internal/repository"
	"github.com/hrportal/attendance-service/internal/uploads"
	apperrors "github.com/hrportal/attendance-service/pkg/util"
)

// employeeIDStart seeds the employee id counter; the first id is EMP1001.
const employeeIDStart = 1000

// UserService manages onboarding and the worker directory.
type UserService struct {
	users      repository.UserRepository
	mappings   repository.ManagerMappingRepository
	counters   repository.CounterRepository
	files      uploads.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	now        Clock
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo    repository.UserRepository
	MappingRepo repository.ManagerMappingRepository
	CounterRepo repository.CounterRepository
	Uploads     uploads.Store
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Now         Clock
}

// OnboardInput describes a signup form.
type OnboardInput struct {
	FirstName        string
	LastName         string
	Email            string
	DOB              string
	Role             string
	ManagerEmpID     string
	Address          string
	Mobile           string
	EmergencyContact string
	Resume           *multipart.FileHeader
	Photo            *multipart.FileHeader
}

// OnboardResult reports the generated credentials.
type OnboardResult struct {
	User            *domain.User
	EmployeeID      string
	DefaultPassword string
}

// WorkerPatch lists editable worker fields. Nil means unchanged.
type WorkerPatch struct {
	FirstName        *string
	LastName         *string
	Email            *string
	Role             *string
	Mobile           *string
	Address          *string
	EmergencyContact *string
	ManagerEmpID     *string
	ResumeURL        *string
	PhotoURL         *string
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		mappings:   deps.MappingRepo,
		counters:   deps.CounterRepo,
		files:      deps.Uploads,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		bcryptCost: cfg.Auth.BcryptCost,
		now:        clockOrDefault(deps.Now),
	}
}

// Onboard creates a user under the caller. The caller may only create
// roles it can view, and every role but superAdmin needs a valid manager.
func (s *UserService) Onboard(ctx context.Context, actor *domain.User, in OnboardInput) (*OnboardResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.ManagerEmpID = strings.TrimSpace(in.ManagerEmpID)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || strings.TrimSpace(in.DOB) == "" || strings.TrimSpace(in.Role) == "" {
		return nil, apperrors.NewValidationError("Missing required fields", nil)
	}

	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, apperrors.NewValidationError("Invalid role", map[string]any{"role": in.Role})
	}
	dob, err := domain.ParseDate(in.DOB)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid date of birth", map[string]any{"dob": in.DOB})
	}
	if !domain.CanView(actor.Role, role) {
		return nil, apperrors.NewForbidden("Not allowed to create this role")
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict("Email already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var manager *domain.User
	if domain.RequiresManager(role) {
		manager, err = s.resolveManager(ctx, role, in.ManagerEmpID)
		if err != nil {
			return nil, err
		}
	}

	resumeURL, err := s.saveUpload(uploads.KindResume, in.Resume)
	if err != nil {
		return nil, err
	}
	photoURL, err := s.saveUpload(uploads.KindPhoto, in.Photo)
	if err != nil {
		s.discardUploads(resumeURL)
		return nil, err
	}
	created := false
	defer func() {
		if !created {
			s.discardUploads(resumeURL, photoURL)
		}
	}()

	seq, err := s.counters.Next(ctx, repository.EmployeeIDCounter, employeeIDStart)
	if err != nil {
		return nil, err
	}
	employeeID := fmt.Sprintf("EMP%d", seq)
	password := auth.DefaultPassword(dob, employeeID)
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	createdBy := actor.ID
	user := &domain.User{
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            in.Email,
		PasswordHash:     hash,
		Role:             role,
		EmployeeID:       employeeID,
		DOB:              dob,
		CreatedBy:        &createdBy,
		Address:          strings.TrimSpace(in.Address),
		Mobile:           strings.TrimSpace(in.Mobile),
		EmergencyContact: strings.TrimSpace(in.EmergencyContact),
		ResumeURL:        resumeURL,
		PhotoURL:         photoURL,
	}
	if manager != nil {
		managerID := manager.ID
		user.ManagerID = &managerID
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("Email already exists", nil)
		}
		return nil, err
	}
	created = true

	if manager != nil {
		mapping := &domain.ManagerMapping{
			EmployeeEmpID: employeeID,
			ManagerEmpID:  manager.EmployeeID,
			Role:          role,
		}
		if err := s.mappings.Upsert(ctx, mapping); err != nil {
			return nil, err
		}
	}

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventUserOnboarded, user.ID,
		events.Actor{UserID: actor.ID, Role: actor.Role}, s.now(),
		events.UserOnboardedPayload{
			Email:           user.Email,
			FullName:        user.FullName(),
			EmployeeID:      employeeID,
			Role:            role,
			DefaultPassword: password,
		}))

	return &OnboardResult{User: user, EmployeeID: employeeID, DefaultPassword: password}, nil
}

// EnsureSuperAdmin creates the first super admin when none exists yet.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, seed config.SeedConfig) (bool, error) {
	if strings.TrimSpace(seed.Email) == "" {
		return false, nil
	}
	count, err := s.users.Count(ctx, repository.UserFilter{Roles: []domain.Role{domain.RoleSuperAdmin}, IncludeDeleted: true})
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	seq, err := s.counters.Next(ctx, repository.EmployeeIDCounter, employeeIDStart)
	if err != nil {
		return false, err
	}
	hash, err := auth.HashPassword(seed.Password, s.bcryptCost)
	if err != nil {
		return false, err
	}
	user := &domain.User{
		FirstName:    seed.FirstName,
		LastName:     seed.LastName,
		Email:        strings.TrimSpace(seed.Email),
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
		EmployeeID:   fmt.Sprintf("EMP%d", seq),
		DOB:          domain.NormalizeDate(s.now()),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, err
	}
	s.logger.Info("seeded super admin", zap.String("email", user.Email), zap.String("employee_id", user.EmployeeID))
	return true, nil
}

// Profile returns the caller's own record.
func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return user, nil
}

// ListWorkers returns the users visible to the actor in the directory.
func (s *UserService) ListWorkers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return s.users.List(ctx, repository.UserFilter{ExcludeID: actor.ID})
	case domain.RoleHR:
		return s.users.List(ctx, repository.UserFilter{ExcludeRoles: []domain.Role{domain.RoleSuperAdmin}})
	case domain.RoleTechManager, domain.RoleEmployee:
		mappings, err := s.mappings.ListByManager(ctx, actor.EmployeeID)
		if err != nil {
			return nil, err
		}
		if len(mappings) == 0 {
			return []domain.User{}, nil
		}
		ids := make([]string, 0, len(mappings))
		for _, m := range mappings {
			ids = append(ids, m.EmployeeEmpID)
		}
		return s.users.List(ctx, repository.UserFilter{EmployeeIDs: ids})
	default:
		return []domain.User{}, nil
	}
}

// UpdateWorker edits a subordinate's record.
func (s *UserService) UpdateWorker(ctx context.Context, actor *domain.User, id string, patch WorkerPatch) (*domain.User, error) {
	target, err := s.loadManagedUser(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if patch.Role != nil {
		role, ok := domain.ParseRole(*patch.Role)
		if !ok {
			return nil, apperrors.NewValidationError("Invalid role", map[string]any{"role": *patch.Role})
		}
		if !domain.CanView(actor.Role, role) {
			return nil, apperrors.NewForbidden("Not allowed to assign this role")
		}
		target.Role = role
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email == "" {
			return nil, apperrors.NewValidationError("Email cannot be empty", nil)
		}
		if !strings.EqualFold(email, target.Email) {
			if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != target.ID {
				return nil, apperrors.NewConflict("Email already exists", nil)
			} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
		}
		target.Email = email
	}
	applyString(&target.FirstName, patch.FirstName)
	applyString(&target.LastName, patch.LastName)
	applyString(&target.Mobile, patch.Mobile)
	applyString(&target.Address, patch.Address)
	applyString(&target.EmergencyContact, patch.EmergencyContact)
	applyString(&target.ResumeURL, patch.ResumeURL)
	applyString(&target.PhotoURL, patch.PhotoURL)

	var manager *domain.User
	if patch.ManagerEmpID != nil && strings.TrimSpace(*patch.ManagerEmpID) != "" {
		manager, err = s.resolveManager(ctx, target.Role, *patch.ManagerEmpID)
		if err != nil {
			return nil, err
		}
		managerID := manager.ID
		target.ManagerID = &managerID
	} else if patch.Role != nil {
		manager, err = s.currentManager(ctx, target)
		if err != nil {
			return nil, err
		}
		if domain.RequiresManager(target.Role) && (manager == nil || !domain.ValidManager(target.Role, manager.Role)) {
			return nil, apperrors.NewValidationError("Manager required for the new role", nil)
		}
	}

	if err := s.users.Update(ctx, target); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("Email already exists", nil)
		}
		return nil, notFound(err, "User")
	}

	if manager != nil && target.EmployeeID != "" {
		mapping := &domain.ManagerMapping{
			EmployeeEmpID: target.EmployeeID,
			ManagerEmpID:  manager.EmployeeID,
			Role:          target.Role,
		}
		if err := s.mappings.Upsert(ctx, mapping); err != nil {
			return nil, err
		}
	}
	return target, nil
}

// DeleteWorker soft-deletes a subordinate.
func (s *UserService) DeleteWorker(ctx context.Context, actor *domain.User, id string) error {
	target, err := s.loadManagedUser(ctx, actor, id)
	if err != nil {
		return err
	}
	target.IsDeleted = true
	return notFound(s.users.Update(ctx, target), "User")
}

// ListManagers returns users able to manage someone. A non-empty forRole
// narrows the list to valid managers of that role.
func (s *UserService) ListManagers(ctx context.Context, forRole string) ([]domain.User, error) {
	var roles []domain.Role
	if strings.TrimSpace(forRole) != "" {
		role, ok := domain.ParseRole(forRole)
		if !ok {
			return nil, apperrors.NewValidationError("Invalid role", map[string]any{"role": forRole})
		}
		roles = domain.ManagerRolesAllowedFor(role)
		if len(roles) == 0 {
			return []domain.User{}, nil
		}
	} else {
		for _, role := range domain.Roles {
			if domain.CanManageOthers(role) {
				roles = append(roles, role)
			}
		}
	}
	return s.users.List(ctx, repository.UserFilter{Roles: roles})
}

// Birthdays lists active users with their date of birth. todayOnly keeps
// those whose birthday falls on the current day.
func (s *UserService) Birthdays(ctx context.Context, todayOnly bool) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}
	if !todayOnly {
		return users, nil
	}
	now := s.now()
	result := make([]domain.User, 0)
	for _, u := range users {
		if u.DOB.Month() == now.Month() && u.DOB.Day() == now.Day() {
			result = append(result, u)
		}
	}
	return result, nil
}

// Roles returns the fixed role catalogue.
func (s *UserService) Roles() []domain.Role {
	return append([]domain.Role(nil), domain.Roles...)
}

func (s *UserService) loadManagedUser(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("Invalid user ID", nil)
	}
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User")
	}
	if target.IsDeleted {
		return nil, apperrors.NewNotFound("User", nil)
	}
	if !domain.CanView(actor.Role, target.Role) {
		return nil, apperrors.NewForbidden("Forbidden")
	}
	return target, nil
}

func (s *UserService) resolveManager(ctx context.Context, role domain.Role, managerEmpID string) (*domain.User, error) {
	managerEmpID = strings.TrimSpace(managerEmpID)
	if managerEmpID == "" {
		return nil, apperrors.NewValidationError("Manager required", nil)
	}
	manager, err := s.users.GetByEmployeeID(ctx, managerEmpID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidationError("Manager not found", map[string]any{"managerEmpId": managerEmpID})
		}
		return nil, err
	}
	if manager.IsDeleted {
		return nil, apperrors.NewValidationError("Manager not found", map[string]any{"managerEmpId": managerEmpID})
	}
	if !domain.ValidManager(role, manager.Role) {
		return nil, apperrors.NewValidationError("Invalid manager role", map[string]any{
			"role":         role,
			"manager_role": manager.Role,
		})
	}
	return manager, nil
}

func (s *UserService) currentManager(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ManagerID == nil {
		return nil, nil
	}
	manager, err := s.users.GetByID(ctx, *user.ManagerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return manager, err
}

func (s *UserService) saveUpload(kind string, file *multipart.FileHeader) (string, error) {
	if file == nil || s.files == nil {
		return "", nil
	}
	url, err := s.files.Save(kind, file)
	if err != nil {
		var rejected *uploads.ErrRejected
		if errors.As(err, &rejected) {
			return "", apperrors.NewValidationError(rejected.Reason, nil)
		}
		return "", err
	}
	return url, nil
}

func (s *UserService) discardUploads(urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.files.Remove(url); err != nil {
			s.logger.Warn("failed to remove upload", zap.String("url", url), zap.Error(err))
		}
	}
}

func applyString(dst *string, val *string) {
	if val != nil {
		*dst = strings.TrimSpace(*val)
	}
}

package service

import (
	"context"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrportal/attendance-service/internal/auth"
	"github.com/hrportal/attendance-service/internal/config"
	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/events"
	"github.com/hrportal/attendance-service/internal/repository"
	"github.com/hrportal/attendance-service/internal/repository/memory"
)

type userFixture struct {
	svc        *UserService
	users      repository.UserRepository
	mappings   repository.ManagerMappingRepository
	dispatcher events.Dispatcher
	h          hierarchy
}

func newUserFixture() *userFixture {
	store := memory.NewStore(fixedClock)
	dispatcher := events.NewInMemoryDispatcher()
	h := seedHierarchy(store)
	svc := NewUserService(testConfig(), UserDependencies{
		UserRepo:    store.Users,
		MappingRepo: store.Mappings,
		CounterRepo: store.Counters,
		Dispatcher:  dispatcher,
		Now:         fixedClock,
	})
	return &userFixture{svc: svc, users: store.Users, mappings: store.Mappings, dispatcher: dispatcher, h: h}
}

func onboardInput(role, manager string) OnboardInput {
	return OnboardInput{
		FirstName:    "Nina",
		LastName:     "New",
		Email:        "nina@example.com",
		DOB:          "1995-03-04",
		Role:         role,
		ManagerEmpID: manager,
	}
}

func TestUserServiceOnboard(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	var published []events.Event
	f.dispatcher.Subscribe(events.EventUserOnboarded, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	res, err := f.svc.Onboard(ctx, f.h.manager, onboardInput("employee", "EMP1003"))
	require.NoError(t, err)
	assert.Equal(t, "EMP1006", res.EmployeeID)
	assert.Equal(t, "1995_EMP1006", res.DefaultPassword)
	require.NotNil(t, res.User.ManagerID)
	assert.Equal(t, f.h.manager.ID, *res.User.ManagerID)
	assert.Equal(t, f.h.manager.ID, *res.User.CreatedBy)
	assert.NoError(t, auth.ComparePassword(res.User.PasswordHash, res.DefaultPassword))

	mapping, err := f.mappings.GetByEmployee(ctx, "EMP1006")
	require.NoError(t, err)
	assert.Equal(t, "EMP1003", mapping.ManagerEmpID)
	assert.Equal(t, domain.RoleEmployee, mapping.Role)

	require.Len(t, published, 1)
	payload := published[0].Payload.(events.UserOnboardedPayload)
	assert.Equal(t, "nina@example.com", payload.Email)
	assert.Equal(t, res.DefaultPassword, payload.DefaultPassword)
}

func TestUserServiceOnboardRejections(t *testing.T) {
	cases := []struct {
		name   string
		actor  func(h hierarchy) *domain.User
		in     OnboardInput
		status int
		msg    string
	}{
		{"missing fields", func(h hierarchy) *domain.User { return h.hr }, OnboardInput{FirstName: "Nina"}, http.StatusBadRequest, "Missing required fields"},
		{"unknown role", func(h hierarchy) *domain.User { return h.hr }, onboardInput("boss", "EMP1002"), http.StatusBadRequest, "Invalid role"},
		{"bad dob", func(h hierarchy) *domain.User { return h.hr }, OnboardInput{FirstName: "N", LastName: "N", Email: "n@example.com", DOB: "03/04/1995", Role: "intern"}, http.StatusBadRequest, "Invalid date of birth"},
		{"role above actor", func(h hierarchy) *domain.User { return h.manager }, onboardInput("techManager", "EMP1002"), http.StatusForbidden, "Not allowed to create this role"},
		{"super admin never creatable", func(h hierarchy) *domain.User { return h.admin }, onboardInput("superAdmin", ""), http.StatusForbidden, "Not allowed to create this role"},
		{"duplicate email", func(h hierarchy) *domain.User { return h.hr }, OnboardInput{FirstName: "E", LastName: "E", Email: "EVE@example.com", DOB: "1995-03-04", Role: "intern", ManagerEmpID: "EMP1004"}, http.StatusConflict, "Email already exists"},
		{"missing manager", func(h hierarchy) *domain.User { return h.hr }, onboardInput("employee", ""), http.StatusBadRequest, "Manager required"},
		{"unknown manager", func(h hierarchy) *domain.User { return h.hr }, onboardInput("employee", "EMP9999"), http.StatusBadRequest, "Manager not found"},
		{"manager skips a level", func(h hierarchy) *domain.User { return h.hr }, onboardInput("employee", "EMP1002"), http.StatusBadRequest, "Invalid manager role"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newUserFixture()
			_, err := f.svc.Onboard(context.Background(), tc.actor(f.h), tc.in)
			assert.Equal(t, tc.msg, requireStatus(t, err, tc.status).Message)
		})
	}
}

func TestUserServiceOnboardAcceptsHRAlias(t *testing.T) {
	f := newUserFixture()
	res, err := f.svc.Onboard(context.Background(), f.h.admin, onboardInput("HR", "EMP1001"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHR, res.User.Role)
}

func TestUserServiceEnsureSuperAdmin(t *testing.T) {
	store := memory.NewStore(fixedClock)
	users := store.Users
	svc := NewUserService(testConfig(), UserDependencies{
		UserRepo:    users,
		MappingRepo: store.Mappings,
		CounterRepo: store.Counters,
		Now:         fixedClock,
	})
	ctx := context.Background()
	seed := config.SeedConfig{Email: "root@example.com", Password: "rootpass", FirstName: "Super", LastName: "Admin"}

	created, err := svc.EnsureSuperAdmin(ctx, seed)
	require.NoError(t, err)
	assert.True(t, created)

	root, err := users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, root.Role)
	assert.Equal(t, "EMP1001", root.EmployeeID)

	created, err = svc.EnsureSuperAdmin(ctx, seed)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.EnsureSuperAdmin(ctx, config.SeedConfig{})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestUserServiceListWorkers(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	ids := func(users []domain.User) []string {
		out := make([]string, 0, len(users))
		for _, u := range users {
			out = append(out, u.EmployeeID)
		}
		return out
	}

	all, err := f.svc.ListWorkers(ctx, f.h.admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"EMP1002", "EMP1003", "EMP1004", "EMP1005"}, ids(all))

	hr, err := f.svc.ListWorkers(ctx, f.h.hr)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"EMP1002", "EMP1003", "EMP1004", "EMP1005"}, ids(hr))

	direct, err := f.svc.ListWorkers(ctx, f.h.manager)
	require.NoError(t, err)
	assert.Equal(t, []string{"EMP1004"}, ids(direct))

	none, err := f.svc.ListWorkers(ctx, f.h.intern)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserServiceUpdateWorker(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	mobile := " 555-0100 "
	updated, err := f.svc.UpdateWorker(ctx, f.h.hr, f.h.employee.ID, WorkerPatch{Mobile: &mobile})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", updated.Mobile)

	_, err = f.svc.UpdateWorker(ctx, f.h.manager, f.h.hr.ID, WorkerPatch{Mobile: &mobile})
	requireStatus(t, err, http.StatusForbidden)

	taken := "ivan@example.com"
	_, err = f.svc.UpdateWorker(ctx, f.h.hr, f.h.employee.ID, WorkerPatch{Email: &taken})
	requireStatus(t, err, http.StatusConflict)

	promoted := "techManager"
	_, err = f.svc.UpdateWorker(ctx, f.h.hr, f.h.employee.ID, WorkerPatch{Role: &promoted})
	assert.Equal(t, "Manager required for the new role", requireStatus(t, err, http.StatusBadRequest).Message)

	newManager := "EMP1002"
	updated, err = f.svc.UpdateWorker(ctx, f.h.hr, f.h.employee.ID, WorkerPatch{Role: &promoted, ManagerEmpID: &newManager})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTechManager, updated.Role)

	mapping, err := f.mappings.GetByEmployee(ctx, "EMP1004")
	require.NoError(t, err)
	assert.Equal(t, "EMP1002", mapping.ManagerEmpID)
	assert.Equal(t, domain.RoleTechManager, mapping.Role)
}

func TestUserServiceDeleteWorker(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	err := f.svc.DeleteWorker(ctx, f.h.employee, f.h.manager.ID)
	requireStatus(t, err, http.StatusForbidden)

	require.NoError(t, f.svc.DeleteWorker(ctx, f.h.manager, f.h.employee.ID))
	stored, err := f.users.GetByID(ctx, f.h.employee.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)

	err = f.svc.DeleteWorker(ctx, f.h.manager, f.h.employee.ID)
	requireStatus(t, err, http.StatusNotFound)

	err = f.svc.DeleteWorker(ctx, f.h.manager, "missing")
	requireStatus(t, err, http.StatusNotFound)
}

func TestUserServiceListManagers(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	forEmployee, err := f.svc.ListManagers(ctx, "employee")
	require.NoError(t, err)
	require.Len(t, forEmployee, 1)
	assert.Equal(t, f.h.manager.ID, forEmployee[0].ID)

	forAdmin, err := f.svc.ListManagers(ctx, "superAdmin")
	require.NoError(t, err)
	assert.Empty(t, forAdmin)

	all, err := f.svc.ListManagers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = f.svc.ListManagers(ctx, "boss")
	requireStatus(t, err, http.StatusBadRequest)
}

func TestUserServiceBirthdays(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	other := *f.h.intern
	other.DOB = domainDate(t, "1999-01-02")
	require.NoError(t, f.users.Update(ctx, &other))

	all, err := f.svc.Birthdays(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	today, err := f.svc.Birthdays(ctx, true)
	require.NoError(t, err)
	assert.Len(t, today, 4)
	for _, u := range today {
		assert.NotEqual(t, f.h.intern.ID, u.ID)
	}
}

func TestUserServiceRolesReturnsCopy(t *testing.T) {
	f := newUserFixture()
	roles := f.svc.Roles()
	require.Len(t, roles, 5)
	roles[0] = "mutated"
	assert.Equal(t, domain.RoleSuperAdmin, f.svc.Roles()[0])
}

func domainDate(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := domain.ParseDate(raw)
	require.NoError(t, err)
	return parsed
}

type recordingFiles struct {
	saved   []string
	removed []string
}

func (r *recordingFiles) Save(kind string, file *multipart.FileHeader) (string, error) {
	url := "/uploads/" + kind + "/" + file.Filename
	r.saved = append(r.saved, url)
	return url, nil
}

func (r *recordingFiles) Remove(url string) error {
	r.removed = append(r.removed, url)
	return nil
}

func TestUserServiceOnboardDiscardsUploadsWhenCreateFails(t *testing.T) {
	store := memory.NewStore(fixedClock)
	h := seedHierarchy(store)
	files := &recordingFiles{}
	svc := NewUserService(testConfig(), UserDependencies{
		UserRepo:    store.Users,
		MappingRepo: store.Mappings,
		CounterRepo: store.Counters,
		Uploads:     files,
		Now:         fixedClock,
	})
	// Take the next employee id so Create hits a unique-key conflict.
	addUser(store.Users, "Squatter", domain.RoleIntern, "EMP1006", "secret")

	in := onboardInput("employee", "EMP1003")
	in.Resume = &multipart.FileHeader{Filename: "cv.pdf", Size: 3}
	in.Photo = &multipart.FileHeader{Filename: "me.png", Size: 3}
	_, err := svc.Onboard(context.Background(), h.manager, in)
	requireStatus(t, err, http.StatusConflict)

	require.Len(t, files.saved, 2)
	assert.ElementsMatch(t, files.saved, files.removed)
}

func TestUserServiceOnboardKeepsUploadsOnSuccess(t *testing.T) {
	store := memory.NewStore(fixedClock)
	h := seedHierarchy(store)
	files := &recordingFiles{}
	svc := NewUserService(testConfig(), UserDependencies{
		UserRepo:    store.Users,
		MappingRepo: store.Mappings,
		CounterRepo: store.Counters,
		Uploads:     files,
		Now:         fixedClock,
	})

	in := onboardInput("employee", "EMP1003")
	in.Resume = &multipart.FileHeader{Filename: "cv.pdf", Size: 3}
	res, err := svc.Onboard(context.Background(), h.manager, in)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/resume/cv.pdf", res.User.ResumeURL)
	assert.Empty(t, files.removed)
}

package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hrportal/attendance-service/internal/api/http/handlers"
	"github.com/hrportal/attendance-service/internal/auth"
	"github.com/hrportal/attendance-service/internal/config"
	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/events"
	"github.com/hrportal/attendance-service/internal/observability"
	"github.com/hrportal/attendance-service/internal/repository"
	"github.com/hrportal/attendance-service/internal/repository/memory"
	"github.com/hrportal/attendance-service/internal/service"
)

type testServer struct {
	app   *fiber.App
	store repository.Store
	users map[domain.Role]*domain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Config{
		App:  config.AppConfig{Name: "attendance-test", Version: "test"},
		Auth: config.AuthConfig{JWTSecret: "router-secret", AccessTokenTTLMinutes: 30, CookieName: "token", BcryptCost: 4, PasswordResetTTLMinutes: 15},
	}
	store := memory.NewStore(nil)
	tokens := memory.NewTokenStore()
	dispatcher := events.NewInMemoryDispatcher()
	tokenMgr := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:     store.Users,
		ResetTokens:  tokens,
		Revocations:  tokens,
		TokenManager: tokenMgr,
		Dispatcher:   dispatcher,
	})
	userService := service.NewUserService(cfg, service.UserDependencies{
		UserRepo:    store.Users,
		MappingRepo: store.Mappings,
		CounterRepo: store.Counters,
		Dispatcher:  dispatcher,
	})
	attendanceService := service.NewAttendanceService(service.AttendanceDependencies{
		AttendanceRepo: store.Attendance,
		UserRepo:       store.Users,
		Dispatcher:     dispatcher,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		UserRepo:       store.Users,
		AttendanceRepo: store.Attendance,
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{}),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth),
		Users:          handlers.NewUsersHandler(userService),
		Attendance:     handlers.NewAttendanceHandler(attendanceService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: auth.NewAuthMiddleware(tokenMgr, store.Users, tokens, cfg.Auth.CookieName),
	})

	srv := &testServer{app: app, store: store, users: map[domain.Role]*domain.User{}}
	for i, role := range domain.Roles {
		hash, err := auth.HashPassword("password", 4)
		require.NoError(t, err)
		u := &domain.User{
			FirstName:    role.Code(),
			LastName:     "User",
			Email:        strings.ToLower(role.Code()) + "@example.com",
			PasswordHash: hash,
			Role:         role,
			EmployeeID:   "EMP" + string(rune('1'+i)),
			DOB:          time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.Users.Create(context.Background(), u))
		srv.users[role] = u
	}
	return srv
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*nethttp.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *nethttp.Request) (*nethttp.Response, map[string]interface{}) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	var payload map[string]interface{}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}

func (s *testServer) login(t *testing.T, role domain.Role) string {
	t.Helper()
	resp, body := s.do(t, fiber.MethodPost, "/api/login", "", map[string]string{
		"email":    s.users[role].Email,
		"password": "password",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	token := body["data"].(map[string]interface{})["auth"].(map[string]interface{})["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func errorMessage(body map[string]interface{}) string {
	errBody, _ := body["error"].(map[string]interface{})
	msg, _ := errBody["message"].(string)
	return msg
}

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])
}

func TestLoginSetsCookieAndLogoutRevokes(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, fiber.MethodPost, "/api/login", "", map[string]string{"email": "employee@example.com", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", errorMessage(body))

	resp, _ = srv.do(t, fiber.MethodPost, "/api/login", "", map[string]string{"email": "employee@example.com", "password": "password"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var session *nethttp.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	req := httptest.NewRequest(fiber.MethodGet, "/api/me", nil)
	req.AddCookie(&nethttp.Cookie{Name: "token", Value: session.Value})
	resp, body = srv.send(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	me := body["data"].(map[string]interface{})
	assert.Equal(t, srv.users[domain.RoleEmployee].ID, me["userId"])
	assert.Equal(t, "employee", me["role"])

	resp, _ = srv.do(t, fiber.MethodPost, "/api/logout", session.Value, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = srv.do(t, fiber.MethodGet, "/api/me", session.Value, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, fiber.MethodGet, "/api/attendance", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]interface{})["code"])

	resp, _ = srv.do(t, fiber.MethodGet, "/api/attendance", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRoleGates(t *testing.T) {
	srv := newTestServer(t)
	intern := srv.login(t, domain.RoleIntern)
	employee := srv.login(t, domain.RoleEmployee)

	resp, body := srv.do(t, fiber.MethodGet, "/api/attendance/approve", intern, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Access denied", errorMessage(body))

	resp, _ = srv.do(t, fiber.MethodPost, "/api/signup", intern, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = srv.do(t, fiber.MethodPost, "/api/attendance/admin-mark", employee, map[string]interface{}{
		"userId": srv.users[domain.RoleIntern].ID,
		"date":   time.Now().Format(domain.DateLayout),
		"leave":  true,
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Access denied", errorMessage(body))

	resp, _ = srv.do(t, fiber.MethodGet, "/api/attendance/export", intern, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestMarkReviewAndExport(t *testing.T) {
	srv := newTestServer(t)
	employee := srv.login(t, domain.RoleEmployee)
	manager := srv.login(t, domain.RoleTechManager)
	hr := srv.login(t, domain.RoleHR)
	today := time.Now().Format(domain.DateLayout)

	resp, body := srv.do(t, fiber.MethodPost, "/api/attendance", employee, map[string]interface{}{
		"date": today, "startTime": "09:30", "endTime": "18:30",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	marked := body["data"].(map[string]interface{})
	evaluation := marked["evaluation"].(map[string]interface{})
	assert.Equal(t, "Full Day", evaluation["attendanceType"])
	recordID := marked["attendance"].(map[string]interface{})["id"].(string)

	resp, body = srv.do(t, fiber.MethodPost, "/api/attendance", employee, map[string]interface{}{
		"date": today, "startTime": "09:00", "endTime": "18:30",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Check-in cannot be before 09:30 AM", errorMessage(body))

	resp, body = srv.do(t, fiber.MethodPost, "/api/attendance/approve", hr, map[string]string{"id": "missing", "status": "approved"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, body)

	resp, body = srv.do(t, fiber.MethodPost, "/api/attendance/approve", manager, map[string]string{"id": recordID, "status": "approved"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "approved", body["data"].(map[string]interface{})["status"])

	resp, body = srv.do(t, fiber.MethodGet, "/api/attendance/approve?status=approved", hr, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	queue := body["data"].([]interface{})
	require.Len(t, queue, 1)
	entry := queue[0].(map[string]interface{})
	assert.Equal(t, "EMP4", entry["user"].(map[string]interface{})["employeeId"])
	assert.Equal(t, "EMP3", entry["approvedBy"].(map[string]interface{})["employeeId"])

	resp, _ = srv.do(t, fiber.MethodGet, "/api/attendance/export?format=csv", manager, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attendance.csv")
	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, service.ExportHeader, rows[0])
	assert.Equal(t, "approved", rows[1][5])

	resp, body = srv.do(t, fiber.MethodGet, "/api/attendance/my-calendar", employee, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)
}

func TestSignupMultipart(t *testing.T) {
	srv := newTestServer(t)
	hr := srv.login(t, domain.RoleHR)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"firstName":    "Nina",
		"lastName":     "New",
		"email":        "nina@example.com",
		"dob":          "1995-03-04",
		"role":         "employee",
		"managerEmpId": "EMP3",
	} {
		require.NoError(t, form.WriteField(k, v))
	}
	require.NoError(t, form.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/signup", &buf)
	req.Header.Set(fiber.HeaderContentType, form.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+hr)
	resp, body := srv.send(t, req)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)

	created := body["data"].(map[string]interface{})
	assert.Equal(t, "EMP1001", created["employeeId"])
	assert.Equal(t, "1995_EMP1001", created["defaultPassword"])

	resp, body = srv.do(t, fiber.MethodPost, "/api/login", "", map[string]string{"email": "nina@example.com", "password": "1995_EMP1001"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, body)
}

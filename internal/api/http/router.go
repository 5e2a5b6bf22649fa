package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hrportal/attendance-service/internal/api/http/handlers"
	"github.com/hrportal/attendance-service/internal/auth"
	"github.com/hrportal/attendance-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Attendance     *handlers.AttendanceHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	UploadsDir     string
	UploadsURL     string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.UploadsDir != "" && cfg.UploadsURL != "" {
		app.Static(cfg.UploadsURL, cfg.UploadsDir, fiber.Static{Browse: false})
	}

	api := app.Group("/api")
	api.Post("/login", cfg.Auth.Login)
	api.Post("/forgot-password", cfg.Auth.ForgotPassword)
	api.Post("/reset-password", cfg.Auth.ResetPassword)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())
	protected.Post("/logout", cfg.Auth.Logout)
	protected.Get("/me", cfg.Auth.Me)
	protected.Post("/password/change", cfg.Auth.ChangePassword)

	protected.Get("/profile", cfg.Users.Profile)
	protected.Get("/roles", cfg.Users.Roles)
	protected.Get("/managers", cfg.Users.Managers)
	protected.Get("/birthdays", cfg.Users.Birthdays)
	protected.Post("/signup", auth.RequireManager(), cfg.Users.Signup)
	protected.Get("/workers", cfg.Users.Workers)
	protected.Put("/workers/:id", auth.RequireManager(), cfg.Users.UpdateWorker)
	protected.Delete("/workers/:id", auth.RequireManager(), cfg.Users.DeleteWorker)

	attendance := protected.Group("/attendance")
	attendance.Get("/", cfg.Attendance.List)
	attendance.Post("/", cfg.Attendance.Mark)
	attendance.Post("/admin-mark", auth.RequireRole(domain.RoleSuperAdmin, domain.RoleHR, domain.RoleTechManager), cfg.Attendance.AdminMark)
	attendance.Get("/approve", cfg.Attendance.Queue)
	attendance.Post("/approve", cfg.Attendance.Review)
	attendance.Get("/my-calendar", cfg.Attendance.MyCalendar)
	attendance.Get("/export", cfg.Attendance.Export)

	protected.Get("/dashboard-stats", cfg.Reports.DashboardStats)
	protected.Get("/analytics", cfg.Reports.Analytics)
}

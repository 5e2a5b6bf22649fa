package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hrportal/attendance-service/internal/api/dto"
	"github.com/hrportal/attendance-service/internal/service"
	apperrors "github.com/hrportal/attendance-service/pkg/util"
)

// ReportsHandler exposes dashboard figures.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reportService}
}

// DashboardStats handles GET /api/dashboard-stats.
func (h *ReportsHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.reports.DashboardStats(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, dto.DashboardStatsResponse{
		TotalUsers:      stats.TotalUsers,
		ActiveToday:     stats.ActiveToday,
		PendingRequests: stats.PendingRequests,
	})
}

// Analytics handles GET /api/analytics?year=.
func (h *ReportsHandler) Analytics(c *fiber.Ctx) error {
	year := c.QueryInt("year", 0)
	if year < 0 || year > 9999 {
		return apperrors.NewValidationError("Invalid year", map[string]any{"year": c.Query("year")})
	}
	report, err := h.reports.Analytics(c.UserContext(), year)
	if err != nil {
		return err
	}
	return data(c, dto.NewAnalyticsResponse(report))
}

package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/hrportal/attendance-service/internal/api/dto"
	"github.com/hrportal/attendance-service/internal/service"
)

// AttendanceHandler exposes attendance marking, review and export.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendanceService}
}

// List handles GET /api/attendance.
func (h *AttendanceHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	views, err := h.attendance.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, dto.NewAttendanceViewResponses(views))
}

// Mark handles POST /api/attendance.
func (h *AttendanceHandler) Mark(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.MarkAttendanceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.attendance.Mark(c.UserContext(), actor, markInput(req))
	if err != nil {
		return err
	}
	return data(c, dto.NewMarkAttendanceResponse(result, req.Leave))
}

// AdminMark handles POST /api/attendance/admin-mark.
func (h *AttendanceHandler) AdminMark(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.MarkAttendanceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.attendance.AdminMark(c.UserContext(), actor, req.UserID, markInput(req))
	if err != nil {
		return err
	}
	return data(c, dto.NewMarkAttendanceResponse(result, req.Leave))
}

// Queue handles GET /api/attendance/approve.
func (h *AttendanceHandler) Queue(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	views, err := h.attendance.ApprovalQueue(c.UserContext(), actor, queueFilter(c))
	if err != nil {
		return err
	}
	return data(c, dto.NewAttendanceViewResponses(views))
}

// Review handles POST /api/attendance/approve.
func (h *AttendanceHandler) Review(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ReviewAttendanceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	record, err := h.attendance.Review(c.UserContext(), actor, req.ID, req.Status)
	if err != nil {
		return err
	}
	return data(c, dto.NewAttendanceResponse(record))
}

// MyCalendar handles GET /api/attendance/my-calendar.
func (h *AttendanceHandler) MyCalendar(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	entries, err := h.attendance.MyCalendar(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return data(c, dto.NewCalendarResponses(entries))
}

// Export handles GET /api/attendance/export?format=csv|xlsx.
func (h *AttendanceHandler) Export(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		return err
	}
	rows, err := h.attendance.ExportRows(c.UserContext(), actor, queueFilter(c))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := service.WriteExport(&buf, format, rows); err != nil {
		return err
	}

	contentType := "text/csv"
	if format == service.ExportXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Attachment("attendance." + format)
	return c.Send(buf.Bytes())
}

func markInput(req dto.MarkAttendanceRequest) service.MarkInput {
	return service.MarkInput{
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Leave:     req.Leave,
	}
}

// queueFilter reads name, role, status and date. Export also accepts the
// dateFilter spelling.
func queueFilter(c *fiber.Ctx) service.QueueFilter {
	date := c.Query("date")
	if date == "" {
		date = c.Query("dateFilter")
	}
	return service.QueueFilter{
		Name:   c.Query("name"),
		Role:   c.Query("role"),
		Status: c.Query("status"),
		Date:   date,
	}
}

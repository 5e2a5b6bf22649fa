package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hrportal/attendance-service/internal/domain"
	apperrors "github.com/hrportal/attendance-service/pkg/util"
)

// Export formats.
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

const exportSheet = "Attendance"

// ExportHeader is the fixed column order of attendance exports.
var ExportHeader = []string{"Name", "Employee ID", "Role", "Date", "Day", "Status"}

// ExportRow is one line of an attendance export.
type ExportRow struct {
	Name       string
	EmployeeID string
	Role       domain.Role
	Date       string
	Day        string
	Status     domain.AttendanceStatus
}

func (r ExportRow) values() []string {
	return []string{r.Name, r.EmployeeID, string(r.Role), r.Date, r.Day, string(r.Status)}
}

// ParseExportFormat defaults to CSV.
func ParseExportFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", ExportCSV:
		return ExportCSV, nil
	case ExportXLSX:
		return ExportXLSX, nil
	}
	return "", apperrors.NewValidationError("Unsupported export format", map[string]any{"format": raw})
}

// ExportRows returns the rows an actor may export, newest first. Interns
// may not export.
func (s *AttendanceService) ExportRows(ctx context.Context, actor *domain.User, filter QueueFilter) ([]ExportRow, error) {
	viewable := domain.ViewableRoles(actor.Role)
	if actor.Role == domain.RoleIntern || len(viewable) == 0 {
		return nil, apperrors.NewForbidden("Forbidden")
	}
	userFilter, recordFilter, err := buildScope(viewable, filter)
	if err != nil {
		return nil, err
	}
	if userFilter == nil {
		return []ExportRow{}, nil
	}
	views, err := s.scopedViews(ctx, *userFilter, recordFilter)
	if err != nil {
		return nil, err
	}

	rows := make([]ExportRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, ExportRow{
			Name:       v.User.FirstName,
			EmployeeID: v.User.EmployeeID,
			Role:       v.User.Role,
			Date:       v.Record.Date.Format(domain.DateLayout),
			Day:        v.Record.Date.Weekday().String(),
			Status:     v.Record.Status,
		})
	}
	return rows, nil
}

// WriteExport encodes rows in the requested format.
func WriteExport(w io.Writer, format string, rows []ExportRow) error {
	switch format {
	case ExportXLSX:
		return writeXLSX(w, rows)
	default:
		return writeCSV(w, rows)
	}
}

func writeCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, rows []ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", toCells(ExportHeader)); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, toCells(row.values())); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "F", 18); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func toCells(values []string) *[]interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &cells
}

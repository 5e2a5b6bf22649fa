package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrportal/attendance-service/internal/domain"
)

const attendanceColumns = `id, user_id, date, start_time, end_time, attendance_type, late, status, approved_by,
        created_at, updated_at`

type attendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository returns a Postgres-backed implementation.
func NewAttendanceRepository(pool *pgxpool.Pool) AttendanceRepository {
	return &attendanceRepository{pool: pool}
}

func (r *attendanceRepository) Upsert(ctx context.Context, record *domain.AttendanceRecord) error {
	if !validUUID(record.UserID) {
		return ErrNotFound
	}
	const query = `
        INSERT INTO attendance_records (user_id, date, start_time, end_time, attendance_type, late, status)
        VALUES ($1,$2,$3,$4,$5,$6,'pending')
        ON CONFLICT (user_id, date) DO UPDATE SET
            start_time = EXCLUDED.start_time,
            end_time = EXCLUDED.end_time,
            attendance_type = EXCLUDED.attendance_type,
            late = EXCLUDED.late,
            status = 'pending',
            approved_by = NULL,
            updated_at = NOW()
        RETURNING id, status, created_at, updated_at`

	record.ApprovedBy = nil
	err := r.pool.QueryRow(ctx, query,
		record.UserID,
		record.Date,
		record.StartTime,
		record.EndTime,
		record.AttendanceType,
		record.Late,
	).Scan(&record.ID, &record.Status, &record.CreatedAt, &record.UpdatedAt)
	return translatePgError(err)
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (*domain.AttendanceRecord, error) {
	if !validUUID(id) {
		return nil, ErrNotFound
	}
	query := "SELECT " + attendanceColumns + " FROM attendance_records WHERE id=$1"
	record, err := scanAttendance(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translatePgError(err)
	}
	return record, nil
}

func (r *attendanceRepository) UpdateStatus(ctx context.Context, id string, status domain.AttendanceStatus, approvedBy string, readAt time.Time) error {
	if !validUUID(id) {
		return ErrNotFound
	}
	const query = `
        UPDATE attendance_records SET status=$1, approved_by=$2, updated_at=NOW()
        WHERE id=$3 AND updated_at=$4`

	cmd, err := r.pool.Exec(ctx, query, status, approvedBy, id, readAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM attendance_records WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStale
	}
	return ErrNotFound
}

func (r *attendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceRecord, error) {
	where, args := attendanceWhere(filter)
	order := " ORDER BY date DESC, created_at DESC"
	switch filter.Order {
	case OrderOldestDate:
		order = " ORDER BY date ASC"
	case OrderRecentlySubmitted:
		order = " ORDER BY created_at DESC"
	}
	query := "SELECT " + attendanceColumns + " FROM attendance_records" + where + order

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AttendanceRecord
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, rows.Err()
}

func (r *attendanceRepository) Count(ctx context.Context, filter AttendanceFilter) (int64, error) {
	where, args := attendanceWhere(filter)
	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM attendance_records"+where, args...).Scan(&count)
	return count, err
}

func (r *attendanceRepository) MonthlyStatusCounts(ctx context.Context, year int) (map[int]map[domain.AttendanceStatus]int64, error) {
	const query = `
        SELECT EXTRACT(MONTH FROM date)::int AS month, status, COUNT(*)
        FROM attendance_records
        WHERE date >= $1 AND date < $2
        GROUP BY month, status`

	from, to := yearBounds(year)
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[int]map[domain.AttendanceStatus]int64{}
	for rows.Next() {
		var (
			month  int
			status domain.AttendanceStatus
			count  int64
		)
		if err := rows.Scan(&month, &status, &count); err != nil {
			return nil, err
		}
		if result[month] == nil {
			result[month] = map[domain.AttendanceStatus]int64{}
		}
		result[month][status] = count
	}
	return result, rows.Err()
}

func attendanceWhere(filter AttendanceFilter) (string, []any) {
	args := []any{}
	clauses := []string{}

	if len(filter.UserIDs) > 0 {
		ids := make([]string, 0, len(filter.UserIDs))
		for _, id := range filter.UserIDs {
			if validUUID(id) {
				ids = append(ids, id)
			}
		}
		args = append(args, ids)
		clauses = append(clauses, fmt.Sprintf("user_id = ANY($%d::uuid[])", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		clauses = append(clauses, fmt.Sprintf("date=$%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("date < $%d", len(args)))
	}
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		args = append(args, types)
		clauses = append(clauses, fmt.Sprintf("attendance_type = ANY($%d)", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanAttendance(row pgx.Row) (*domain.AttendanceRecord, error) {
	var (
		record domain.AttendanceRecord
		date   time.Time
	)
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&date,
		&record.StartTime,
		&record.EndTime,
		&record.AttendanceType,
		&record.Late,
		&record.Status,
		&record.ApprovedBy,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}
	record.Date = domain.NormalizeDate(date)
	return &record, nil
}

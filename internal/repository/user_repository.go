package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrportal/attendance-service/internal/domain"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, employee_id, dob, manager_id,
        created_by, address, mobile, emergency_contact, resume_url, photo_url, is_deleted, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (first_name, last_name, email, password_hash, role, employee_id, dob, manager_id,
            created_by, address, mobile, emergency_contact, resume_url, photo_url)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
		nullableString(user.EmployeeID),
		user.DOB,
		user.ManagerID,
		user.CreatedBy,
		user.Address,
		user.Mobile,
		user.EmergencyContact,
		user.ResumeURL,
		user.PhotoURL,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translatePgError(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if !validUUID(user.ID) {
		return ErrNotFound
	}
	const query = `
        UPDATE users SET first_name=$1, last_name=$2, email=$3, password_hash=$4, role=$5, dob=$6,
            manager_id=$7, address=$8, mobile=$9, emergency_contact=$10, resume_url=$11, photo_url=$12,
            is_deleted=$13, updated_at=NOW()
        WHERE id=$14
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.DOB,
		user.ManagerID,
		user.Address,
		user.Mobile,
		user.EmergencyContact,
		user.ResumeURL,
		user.PhotoURL,
		user.IsDeleted,
		user.ID,
	).Scan(&user.UpdatedAt)
	return translatePgError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validUUID(id) {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, "id=$1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "LOWER(email)=LOWER($1)", email)
}

func (r *userRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	return r.getOne(ctx, "employee_id=$1", employeeID)
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + where
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translatePgError(err)
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	where, args := userWhere(filter)
	query := "SELECT " + userColumns + " FROM users" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	where, args := userWhere(filter)
	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&count)
	return count, err
}

func (r *userRepository) CountByRole(ctx context.Context) (map[domain.Role]int64, error) {
	const query = `
        SELECT role, COUNT(*) FROM users
        WHERE is_deleted = FALSE
        GROUP BY role`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[domain.Role]int64{}
	for rows.Next() {
		var (
			role  domain.Role
			count int64
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		result[role] = count
	}
	return result, rows.Err()
}

func (r *userRepository) MonthlySignups(ctx context.Context, year int) (map[int]int64, error) {
	const query = `
        SELECT EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*)
        FROM users
        WHERE created_at >= $1 AND created_at < $2 AND is_deleted = FALSE
        GROUP BY month`

	from, to := yearBounds(year)
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[int]int64{}
	for rows.Next() {
		var (
			month int
			count int64
		)
		if err := rows.Scan(&month, &count); err != nil {
			return nil, err
		}
		result[month] = count
	}
	return result, rows.Err()
}

func userWhere(filter UserFilter) (string, []any) {
	args := []any{}
	clauses := []string{}

	if !filter.IncludeDeleted {
		clauses = append(clauses, "is_deleted = FALSE")
	}
	if len(filter.Roles) > 0 {
		args = append(args, rolesToStrings(filter.Roles))
		clauses = append(clauses, fmt.Sprintf("role = ANY($%d)", len(args)))
	}
	if len(filter.ExcludeRoles) > 0 {
		args = append(args, rolesToStrings(filter.ExcludeRoles))
		clauses = append(clauses, fmt.Sprintf("NOT (role = ANY($%d))", len(args)))
	}
	if len(filter.EmployeeIDs) > 0 {
		args = append(args, filter.EmployeeIDs)
		clauses = append(clauses, fmt.Sprintf("employee_id = ANY($%d)", len(args)))
	}
	if filter.ExcludeID != "" && validUUID(filter.ExcludeID) {
		args = append(args, filter.ExcludeID)
		clauses = append(clauses, fmt.Sprintf("id <> $%d", len(args)))
	}
	if name := strings.TrimSpace(filter.NameContains); name != "" {
		args = append(args, "%"+escapeLike(name)+"%")
		clauses = append(clauses, fmt.Sprintf("first_name ILIKE $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user       domain.User
		employeeID *string
	)
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&employeeID,
		&user.DOB,
		&user.ManagerID,
		&user.CreatedBy,
		&user.Address,
		&user.Mobile,
		&user.EmergencyContact,
		&user.ResumeURL,
		&user.PhotoURL,
		&user.IsDeleted,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if employeeID != nil {
		user.EmployeeID = *employeeID
	}
	return &user, nil
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, string(role))
	}
	return out
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

func yearBounds(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

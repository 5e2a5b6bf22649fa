package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrportal/attendance-service/internal/domain"
)

type managerMappingRepository struct {
	pool *pgxpool.Pool
}

// NewManagerMappingRepository returns a Postgres-backed implementation.
func NewManagerMappingRepository(pool *pgxpool.Pool) ManagerMappingRepository {
	return &managerMappingRepository{pool: pool}
}

func (r *managerMappingRepository) Upsert(ctx context.Context, mapping *domain.ManagerMapping) error {
	const query = `
        INSERT INTO employee_manager_mappings (employee_emp_id, manager_emp_id, role)
        VALUES ($1,$2,$3)
        ON CONFLICT (employee_emp_id) DO UPDATE SET
            manager_emp_id = EXCLUDED.manager_emp_id,
            role = EXCLUDED.role,
            updated_at = NOW()
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		mapping.EmployeeEmpID,
		mapping.ManagerEmpID,
		mapping.Role,
	).Scan(&mapping.ID, &mapping.CreatedAt, &mapping.UpdatedAt)
	return translatePgError(err)
}

func (r *managerMappingRepository) GetByEmployee(ctx context.Context, employeeEmpID string) (*domain.ManagerMapping, error) {
	const query = `
        SELECT id, employee_emp_id, manager_emp_id, role, created_at, updated_at
        FROM employee_manager_mappings WHERE employee_emp_id=$1`

	var mapping domain.ManagerMapping
	if err := r.pool.QueryRow(ctx, query, employeeEmpID).Scan(
		&mapping.ID,
		&mapping.EmployeeEmpID,
		&mapping.ManagerEmpID,
		&mapping.Role,
		&mapping.CreatedAt,
		&mapping.UpdatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &mapping, nil
}

func (r *managerMappingRepository) ListByManager(ctx context.Context, managerEmpID string) ([]domain.ManagerMapping, error) {
	const query = `
        SELECT id, employee_emp_id, manager_emp_id, role, created_at, updated_at
        FROM employee_manager_mappings WHERE manager_emp_id=$1
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, managerEmpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ManagerMapping
	for rows.Next() {
		var mapping domain.ManagerMapping
		if err := rows.Scan(
			&mapping.ID,
			&mapping.EmployeeEmpID,
			&mapping.ManagerEmpID,
			&mapping.Role,
			&mapping.CreatedAt,
			&mapping.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, mapping)
	}
	return result, rows.Err()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type counterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository returns a Postgres-backed implementation.
func NewCounterRepository(pool *pgxpool.Pool) CounterRepository {
	return &counterRepository{pool: pool}
}

func (r *counterRepository) Next(ctx context.Context, name string, start int64) (int64, error) {
	const query = `
        INSERT INTO counters (name, seq) VALUES ($1, $2 + 1)
        ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
        RETURNING seq`

	var seq int64
	if err := r.pool.QueryRow(ctx, query, name, start).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// NewPostgresStore wires every Postgres repository over one pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return Store{
		Users:      NewUserRepository(pool),
		Attendance: NewAttendanceRepository(pool),
		Mappings:   NewManagerMappingRepository(pool),
		Counters:   NewCounterRepository(pool),
	}
}

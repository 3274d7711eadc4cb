package technician

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medops/medops/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type technicianRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &technicianRepoPG{pool: pool}
}

func (r *technicianRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const technicianCols = `id, full_name, email, skills, specialization, employed, available,
	shift_start, shift_end, max_scheduled_tasks, max_open_requests, created_at, updated_at`

func (r *technicianRepoPG) scan(row pgx.Row) (*Technician, error) {
	var t Technician
	err := row.Scan(&t.ID, &t.FullName, &t.Email, &t.Skills, &t.Specialization,
		&t.Employed, &t.Available, &t.ShiftStart, &t.ShiftEnd,
		&t.MaxScheduledTasks, &t.MaxOpenRequests, &t.CreatedAt, &t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return &t, err
}

func (r *technicianRepoPG) Create(ctx context.Context, t *Technician) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO technician (id, full_name, email, skills, specialization, employed,
			available, shift_start, shift_end, max_scheduled_tasks, max_open_requests)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.ID, t.FullName, t.Email, t.Skills, t.Specialization, t.Employed,
		t.Available, t.ShiftStart, t.ShiftEnd, t.MaxScheduledTasks, t.MaxOpenRequests)
	return err
}

func (r *technicianRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Technician, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+technicianCols+` FROM technician WHERE id = $1`, id))
}

func (r *technicianRepoPG) Update(ctx context.Context, t *Technician) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE technician SET full_name=$2, email=$3, skills=$4, specialization=$5,
			employed=$6, available=$7, shift_start=$8, shift_end=$9,
			max_scheduled_tasks=$10, max_open_requests=$11, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.FullName, t.Email, t.Skills, t.Specialization, t.Employed,
		t.Available, t.ShiftStart, t.ShiftEnd, t.MaxScheduledTasks, t.MaxOpenRequests)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *technicianRepoPG) List(ctx context.Context, limit, offset int) ([]*Technician, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM technician`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+technicianCols+` FROM technician ORDER BY full_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Technician
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, nil
}

func (r *technicianRepoPG) ListEmployed(ctx context.Context) ([]*Technician, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+technicianCols+` FROM technician WHERE employed ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Technician
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, nil
}

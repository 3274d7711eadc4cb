package equipment

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

type equipmentRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &equipmentRepoPG{pool: pool}
}

func (r *equipmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const equipmentCols = `id, code, name, equipment_type, location, status,
	out_of_service, downtime_hours, downtime_started_at, created_at, updated_at`

func (r *equipmentRepoPG) scan(row pgx.Row) (*Equipment, error) {
	var e Equipment
	err := row.Scan(&e.ID, &e.Code, &e.Name, &e.EquipmentType, &e.Location, &e.Status,
		&e.OutOfService, &e.DowntimeHours, &e.DowntimeStartedAt, &e.CreatedAt, &e.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return &e, err
}

func (r *equipmentRepoPG) Create(ctx context.Context, e *Equipment) error {
	e.ID = uuid.New()
	if e.Status == "" {
		e.Status = StatusOperational
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO equipment (id, code, name, equipment_type, location, status,
			out_of_service, downtime_hours, downtime_started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.Code, e.Name, e.EquipmentType, e.Location, e.Status,
		e.OutOfService, e.DowntimeHours, e.DowntimeStartedAt)
	return err
}

func (r *equipmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+equipmentCols+` FROM equipment WHERE id = $1`, id))
}

func (r *equipmentRepoPG) GetByCode(ctx context.Context, code string) (*Equipment, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+equipmentCols+` FROM equipment WHERE code = $1`, code))
}

func (r *equipmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Equipment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM equipment`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+equipmentCols+` FROM equipment ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Equipment
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}

func (r *equipmentRepoPG) UpdateStatus(ctx context.Context, e *Equipment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE equipment SET status=$2, out_of_service=$3, downtime_hours=$4,
			downtime_started_at=$5, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.Status, e.OutOfService, e.DowntimeHours, e.DowntimeStartedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

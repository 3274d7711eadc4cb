package request

import (
	"context"
	"fmt"

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

type requestRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &requestRepoPG{pool: pool}
}

func (r *requestRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const requestCols = `id, request_id, title, description, priority, status, equipment_id,
	assigned_technician_id, assigned_technician_name, reported_by, resolution_notes,
	completed_at, created_at, updated_at`

func (r *requestRepoPG) scan(row pgx.Row) (*MaintenanceRequest, error) {
	var m MaintenanceRequest
	err := row.Scan(&m.ID, &m.RequestID, &m.Title, &m.Description, &m.Priority, &m.Status,
		&m.EquipmentID, &m.AssignedTechnicianID, &m.AssignedTechnicianName, &m.ReportedBy,
		&m.ResolutionNotes, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return &m, err
}

func (r *requestRepoPG) Create(ctx context.Context, m *MaintenanceRequest) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO maintenance_request (id, request_id, title, description, priority, status,
			equipment_id, assigned_technician_id, assigned_technician_name, reported_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		m.ID, m.RequestID, m.Title, m.Description, m.Priority, m.Status,
		m.EquipmentID, m.AssignedTechnicianID, m.AssignedTechnicianName, m.ReportedBy)
	return err
}

func (r *requestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MaintenanceRequest, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+` FROM maintenance_request WHERE id = $1`, id))
}

func (r *requestRepoPG) GetByRequestID(ctx context.Context, requestID string) (*MaintenanceRequest, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+` FROM maintenance_request WHERE request_id = $1`, requestID))
}

func (r *requestRepoPG) Update(ctx context.Context, m *MaintenanceRequest) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE maintenance_request SET
			title=$2, description=$3, priority=$4, status=$5, equipment_id=$6,
			assigned_technician_id=$7, assigned_technician_name=$8,
			resolution_notes=$9, completed_at=$10, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Title, m.Description, m.Priority, m.Status, m.EquipmentID,
		m.AssignedTechnicianID, m.AssignedTechnicianName,
		m.ResolutionNotes, m.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *requestRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*MaintenanceRequest, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where += fmt.Sprintf(clause, len(args))
	}
	if f.Status != "" {
		add(` AND status = $%d`, f.Status)
	}
	if f.Priority != "" {
		add(` AND priority = $%d`, f.Priority)
	}
	if f.EquipmentID != nil {
		add(` AND equipment_id = $%d`, *f.EquipmentID)
	}
	if f.TechnicianID != nil {
		add(` AND assigned_technician_id = $%d`, *f.TechnicianID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM maintenance_request`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + requestCols + ` FROM maintenance_request` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*MaintenanceRequest
	for rows.Next() {
		m, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *requestRepoPG) HasOpenCriticalRequest(ctx context.Context, equipmentID uuid.UUID) (bool, error) {
	var open bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM maintenance_request
			WHERE equipment_id = $1 AND priority = 'critical' AND status = ANY($2)
		)`, equipmentID, OpenStatuses).Scan(&open)
	return open, err
}

func (r *requestRepoPG) CountOpenByTechnician(ctx context.Context, technicianID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM maintenance_request
		WHERE assigned_technician_id = $1 AND status = ANY($2)`,
		technicianID, OpenStatuses).Scan(&n)
	return n, err
}

package maintenance

import (
	"context"
	"fmt"
	"time"

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

type maintenanceRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &maintenanceRepoPG{pool: pool}
}

func (r *maintenanceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const maintenanceCols = `id, schedule_id, equipment_id, equipment_code, maintenance_type, priority,
	description, scheduled_date, scheduled_time, estimated_duration_hours, status,
	assigned_technician_id, assigned_technician_name, recurrence_unit, recurrence_interval,
	recurrence_end_date, completion_notes, actual_duration_hours, actual_cost, completed_at,
	created_at, updated_at`

func (r *maintenanceRepoPG) scan(row pgx.Row) (*ScheduledMaintenance, error) {
	var m ScheduledMaintenance
	err := row.Scan(&m.ID, &m.ScheduleID, &m.EquipmentID, &m.EquipmentCode, &m.MaintenanceType,
		&m.Priority, &m.Description, &m.ScheduledDate, &m.ScheduledTime, &m.EstimatedDurationHours,
		&m.Status, &m.AssignedTechnicianID, &m.AssignedTechnicianName, &m.RecurrenceUnit,
		&m.RecurrenceInterval, &m.RecurrenceEndDate, &m.CompletionNotes, &m.ActualDurationHours,
		&m.ActualCost, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return &m, err
}

func (r *maintenanceRepoPG) Create(ctx context.Context, m *ScheduledMaintenance) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO scheduled_maintenance (id, schedule_id, equipment_id, equipment_code,
			maintenance_type, priority, description, scheduled_date, scheduled_time,
			estimated_duration_hours, status, assigned_technician_id, assigned_technician_name,
			recurrence_unit, recurrence_interval, recurrence_end_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		m.ID, m.ScheduleID, m.EquipmentID, m.EquipmentCode, m.MaintenanceType, m.Priority,
		m.Description, m.ScheduledDate, m.ScheduledTime, m.EstimatedDurationHours, m.Status,
		m.AssignedTechnicianID, m.AssignedTechnicianName, m.RecurrenceUnit, m.RecurrenceInterval,
		m.RecurrenceEndDate)
	return err
}

func (r *maintenanceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ScheduledMaintenance, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+maintenanceCols+` FROM scheduled_maintenance WHERE id = $1`, id))
}

func (r *maintenanceRepoPG) GetByScheduleID(ctx context.Context, scheduleID string) (*ScheduledMaintenance, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+maintenanceCols+` FROM scheduled_maintenance WHERE schedule_id = $1`, scheduleID))
}

func (r *maintenanceRepoPG) Update(ctx context.Context, m *ScheduledMaintenance) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE scheduled_maintenance SET
			maintenance_type=$2, priority=$3, description=$4, scheduled_date=$5,
			scheduled_time=$6, estimated_duration_hours=$7, status=$8,
			assigned_technician_id=$9, assigned_technician_name=$10,
			recurrence_unit=$11, recurrence_interval=$12, recurrence_end_date=$13,
			completion_notes=$14, actual_duration_hours=$15, actual_cost=$16,
			completed_at=$17, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.MaintenanceType, m.Priority, m.Description, m.ScheduledDate,
		m.ScheduledTime, m.EstimatedDurationHours, m.Status,
		m.AssignedTechnicianID, m.AssignedTechnicianName,
		m.RecurrenceUnit, m.RecurrenceInterval, m.RecurrenceEndDate,
		m.CompletionNotes, m.ActualDurationHours, m.ActualCost, m.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *maintenanceRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*ScheduledMaintenance, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where += fmt.Sprintf(clause, len(args))
	}
	if f.Status != "" {
		add(` AND status = $%d`, f.Status)
	}
	if f.MaintenanceType != "" {
		add(` AND maintenance_type = $%d`, f.MaintenanceType)
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
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM scheduled_maintenance`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + maintenanceCols + ` FROM scheduled_maintenance` + where +
		fmt.Sprintf(` ORDER BY scheduled_date, scheduled_time LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *maintenanceRepoPG) collect(rows pgx.Rows) ([]*ScheduledMaintenance, error) {
	var items []*ScheduledMaintenance
	for rows.Next() {
		m, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *maintenanceRepoPG) ListByMonth(ctx context.Context, year, month int) ([]*ScheduledMaintenance, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+maintenanceCols+` FROM scheduled_maintenance
		WHERE EXTRACT(YEAR FROM scheduled_date) = $1 AND EXTRACT(MONTH FROM scheduled_date) = $2
		ORDER BY scheduled_date, scheduled_time`, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *maintenanceRepoPG) ListDue(ctx context.Context, asOf time.Time) ([]*ScheduledMaintenance, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+maintenanceCols+` FROM scheduled_maintenance
		WHERE status = ANY($1) AND scheduled_date <= $2::date
		ORDER BY scheduled_date, scheduled_time`, ActiveStatuses, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *maintenanceRepoPG) HasActiveMaintenance(ctx context.Context, equipmentID uuid.UUID, asOf time.Time) (bool, error) {
	var active bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM scheduled_maintenance
			WHERE equipment_id = $1
			  AND (status = $2 OR (status = ANY($3) AND scheduled_date <= $4::date))
		)`, equipmentID, StatusInProgress,
		[]string{StatusScheduled, StatusAssigned, StatusRescheduled}, asOf).Scan(&active)
	return active, err
}

func (r *maintenanceRepoPG) CountActiveByTechnician(ctx context.Context, technicianID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM scheduled_maintenance
		WHERE assigned_technician_id = $1 AND status = ANY($2)`,
		technicianID, ActiveStatuses).Scan(&n)
	return n, err
}

func (r *maintenanceRepoPG) ListSlotsOnDate(ctx context.Context, technicianID uuid.UUID, date time.Time) ([]Slot, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT scheduled_time, estimated_duration_hours FROM scheduled_maintenance
		WHERE assigned_technician_id = $1 AND status = ANY($2) AND scheduled_date = $3::date`,
		technicianID, ActiveStatuses, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.StartClock, &s.DurationHours); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

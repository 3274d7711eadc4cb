package maintenance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status          string
	MaintenanceType string
	Priority        string
	EquipmentID     *uuid.UUID
	TechnicianID    *uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, m *ScheduledMaintenance) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduledMaintenance, error)
	GetByScheduleID(ctx context.Context, scheduleID string) (*ScheduledMaintenance, error)
	Update(ctx context.Context, m *ScheduledMaintenance) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*ScheduledMaintenance, int, error)
	ListByMonth(ctx context.Context, year, month int) ([]*ScheduledMaintenance, error)

	// ListDue returns non-terminal tasks whose scheduled date is on or before
	// asOf's date.
	ListDue(ctx context.Context, asOf time.Time) ([]*ScheduledMaintenance, error)

	// HasActiveMaintenance reports whether the equipment has a task In Progress,
	// or a Scheduled/Assigned task already due as of the given time. Input to
	// equipment status derivation.
	HasActiveMaintenance(ctx context.Context, equipmentID uuid.UUID, asOf time.Time) (bool, error)

	// CountActiveByTechnician and ListSlotsOnDate back the technician
	// availability predicates; the task row owns the assignment, so both are
	// derived queries.
	CountActiveByTechnician(ctx context.Context, technicianID uuid.UUID) (int, error)
	ListSlotsOnDate(ctx context.Context, technicianID uuid.UUID, date time.Time) ([]Slot, error)
}

package equipment

import (
	"time"

	"github.com/google/uuid"
)

// Status values for a piece of equipment. The column is derived, never written
// directly by callers; Service.SyncStatus is the single writer.
const (
	StatusOperational      = "Operational"
	StatusUnderMaintenance = "Under Maintenance"
	StatusNeedsRepair      = "Needs Repair"
	StatusOutOfService     = "Out of Service"
)

// Equipment maps to the equipment table.
type Equipment struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	Code              string     `db:"code" json:"code"`
	Name              string     `db:"name" json:"name"`
	EquipmentType     string     `db:"equipment_type" json:"equipment_type"`
	Location          *string    `db:"location" json:"location,omitempty"`
	Status            string     `db:"status" json:"status"`
	OutOfService      bool       `db:"out_of_service" json:"out_of_service"`
	DowntimeHours     float64    `db:"downtime_hours" json:"downtime_hours"`
	DowntimeStartedAt *time.Time `db:"downtime_started_at" json:"downtime_started_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Activity summarizes the maintenance work currently attached to a piece of
// equipment. It is the authoritative input to status derivation.
type Activity struct {
	ActiveMaintenance   bool // a scheduled task is In Progress or due
	OpenCriticalRequest bool // an Open/In Progress ticket with critical priority
}

// DeriveStatus computes the status an equipment row should carry given its
// current activity. Under Maintenance wins over Needs Repair; a manual
// out-of-service flag wins over everything.
func DeriveStatus(outOfService bool, a Activity) string {
	if outOfService {
		return StatusOutOfService
	}
	if a.ActiveMaintenance {
		return StatusUnderMaintenance
	}
	if a.OpenCriticalRequest {
		return StatusNeedsRepair
	}
	return StatusOperational
}

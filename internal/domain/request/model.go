package request

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle statuses for an ad-hoc maintenance request. Completed and
// Cancelled are terminal.
const (
	StatusOpen       = "Open"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

var validStatuses = map[string]bool{
	StatusOpen: true, StatusInProgress: true,
	StatusCompleted: true, StatusCancelled: true,
}

var terminalStatuses = map[string]bool{
	StatusCompleted: true, StatusCancelled: true,
}

// OpenStatuses are the statuses that count toward technician request capacity
// and equipment activity.
var OpenStatuses = []string{StatusOpen, StatusInProgress}

var validPriorities = map[string]bool{
	"low": true, "medium": true, "high": true, "critical": true,
}

// MaintenanceRequest maps to the maintenance_request table.
type MaintenanceRequest struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	RequestID              string     `db:"request_id" json:"request_id"`
	Title                  string     `db:"title" json:"title"`
	Description            *string    `db:"description" json:"description,omitempty"`
	Priority               string     `db:"priority" json:"priority"`
	Status                 string     `db:"status" json:"status"`
	EquipmentID            *uuid.UUID `db:"equipment_id" json:"equipment_id,omitempty"`
	AssignedTechnicianID   *uuid.UUID `db:"assigned_technician_id" json:"assigned_technician_id,omitempty"`
	AssignedTechnicianName *string    `db:"assigned_technician_name" json:"assigned_technician_name,omitempty"`
	ReportedBy             string     `db:"reported_by" json:"reported_by"`
	ResolutionNotes        *string    `db:"resolution_notes" json:"resolution_notes,omitempty"`
	CompletedAt            *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the request is in a terminal status.
func (r *MaintenanceRequest) Terminal() bool { return terminalStatuses[r.Status] }

package maintenance

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Lifecycle statuses for a scheduled maintenance task. Completed and Cancelled
// are terminal.
const (
	StatusScheduled   = "Scheduled"
	StatusAssigned    = "Assigned"
	StatusInProgress  = "In Progress"
	StatusCompleted   = "Completed"
	StatusCancelled   = "Cancelled"
	StatusRescheduled = "Rescheduled"
)

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusAssigned: true, StatusInProgress: true,
	StatusCompleted: true, StatusCancelled: true, StatusRescheduled: true,
}

var terminalStatuses = map[string]bool{
	StatusCompleted: true, StatusCancelled: true,
}

// ActiveStatuses are the non-terminal statuses that count toward technician
// capacity and equipment activity.
var ActiveStatuses = []string{StatusScheduled, StatusAssigned, StatusInProgress, StatusRescheduled}

var validMaintenanceTypes = map[string]bool{
	"preventive": true, "repair": true, "inspection": true,
	"calibration": true, "upgrade": true,
}

var validPriorities = map[string]bool{
	"low": true, "medium": true, "high": true, "critical": true,
}

// Recurrence units. Intervals are positive counts of the unit; the next
// occurrence is always computed from the original scheduled date.
const (
	RecurNone      = "none"
	RecurDaily     = "daily"
	RecurWeekly    = "weekly"
	RecurMonthly   = "monthly"
	RecurQuarterly = "quarterly"
	RecurYearly    = "yearly"
)

var validRecurrenceUnits = map[string]bool{
	RecurNone: true, RecurDaily: true, RecurWeekly: true,
	RecurMonthly: true, RecurQuarterly: true, RecurYearly: true,
}

var clockRE = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidClock reports whether s is a well-formed 24h HH:MM string.
func ValidClock(s string) bool { return clockRE.MatchString(s) }

// Duration bounds in hours for a single task.
const (
	MinDurationHours = 0.5
	MaxDurationHours = 8.0
)

// ScheduledMaintenance maps to the scheduled_maintenance table.
type ScheduledMaintenance struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	ScheduleID             string     `db:"schedule_id" json:"schedule_id"`
	EquipmentID            uuid.UUID  `db:"equipment_id" json:"equipment_id"`
	EquipmentCode          string     `db:"equipment_code" json:"equipment_code"`
	MaintenanceType        string     `db:"maintenance_type" json:"maintenance_type"`
	Priority               string     `db:"priority" json:"priority"`
	Description            *string    `db:"description" json:"description,omitempty"`
	ScheduledDate          time.Time  `db:"scheduled_date" json:"scheduled_date"`
	ScheduledTime          string     `db:"scheduled_time" json:"scheduled_time"`
	EstimatedDurationHours float64    `db:"estimated_duration_hours" json:"estimated_duration_hours"`
	Status                 string     `db:"status" json:"status"`
	AssignedTechnicianID   *uuid.UUID `db:"assigned_technician_id" json:"assigned_technician_id,omitempty"`
	AssignedTechnicianName *string    `db:"assigned_technician_name" json:"assigned_technician_name,omitempty"`
	RecurrenceUnit         string     `db:"recurrence_unit" json:"recurrence_unit"`
	RecurrenceInterval     int        `db:"recurrence_interval" json:"recurrence_interval"`
	RecurrenceEndDate      *time.Time `db:"recurrence_end_date" json:"recurrence_end_date,omitempty"`
	CompletionNotes        *string    `db:"completion_notes" json:"completion_notes,omitempty"`
	ActualDurationHours    *float64   `db:"actual_duration_hours" json:"actual_duration_hours,omitempty"`
	ActualCost             *float64   `db:"actual_cost" json:"actual_cost,omitempty"`
	CompletedAt            *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the task is in a terminal status.
func (m *ScheduledMaintenance) Terminal() bool { return terminalStatuses[m.Status] }

// Recurs reports whether a completed task should spawn a follow-up occurrence.
func (m *ScheduledMaintenance) Recurs() bool {
	return m.RecurrenceUnit != "" && m.RecurrenceUnit != RecurNone && m.RecurrenceInterval > 0
}

// NextOccurrence advances from by interval units. Month arithmetic follows
// time.AddDate normalization (Jan 31 + 1 month = Mar 2/3).
func NextOccurrence(from time.Time, unit string, interval int) time.Time {
	switch unit {
	case RecurDaily:
		return from.AddDate(0, 0, interval)
	case RecurWeekly:
		return from.AddDate(0, 0, 7*interval)
	case RecurMonthly:
		return from.AddDate(0, interval, 0)
	case RecurQuarterly:
		return from.AddDate(0, 3*interval, 0)
	case RecurYearly:
		return from.AddDate(interval, 0, 0)
	default:
		return from
	}
}

// Slot is a task's occupied window on a date, used for conflict checks.
type Slot struct {
	StartClock    string
	DurationHours float64
}

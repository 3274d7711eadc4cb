package technician

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Technician maps to the technician table.
type Technician struct {
	ID                uuid.UUID `db:"id" json:"id"`
	FullName          string    `db:"full_name" json:"full_name"`
	Email             string    `db:"email" json:"email"`
	Skills            []string  `db:"skills" json:"skills"`
	Specialization    *string   `db:"specialization" json:"specialization,omitempty"`
	Employed          bool      `db:"employed" json:"employed"`
	Available         bool      `db:"available" json:"available"`
	ShiftStart        string    `db:"shift_start" json:"shift_start"`
	ShiftEnd          string    `db:"shift_end" json:"shift_end"`
	MaxScheduledTasks int       `db:"max_scheduled_tasks" json:"max_scheduled_tasks"`
	MaxOpenRequests   int       `db:"max_open_requests" json:"max_open_requests"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Window is a task's time slot on a given day, expressed in decimal hours from
// midnight with half-open [Start, Start+Duration) semantics.
type Window struct {
	Start    float64
	Duration float64
}

func (w Window) End() float64 { return w.Start + w.Duration }

// Overlaps reports whether two half-open windows intersect.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End() && other.Start < w.End()
}

// ClockToHours converts an "HH:MM" clock string to decimal hours from midnight.
func ClockToHours(clock string) (float64, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}
	return float64(h) + float64(m)/60, nil
}

// HasSkill reports whether the technician lists the given skill
// (case-insensitive).
func (t *Technician) HasSkill(skill string) bool {
	for _, s := range t.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

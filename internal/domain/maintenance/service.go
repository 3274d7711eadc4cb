package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medops/medops/internal/domain/equipment"
	"github.com/medops/medops/internal/domain/technician"
	"github.com/medops/medops/internal/platform/db"
	"github.com/medops/medops/internal/platform/notification"
)

// Common errors returned by the maintenance service.
var (
	ErrNotFound              = errors.New("scheduled maintenance not found")
	ErrValidation            = errors.New("invalid maintenance data")
	ErrAlreadyCompleted      = errors.New("maintenance is already completed")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrTechnicianUnavailable = errors.New("technician cannot take this slot")
)

// cadence drives auto-scheduling: preventive interval in months and default
// task duration in hours, keyed by equipment type.
type cadence struct {
	IntervalMonths int
	DurationHours  float64
}

var cadenceByType = map[string]cadence{
	"Ventilator":       {1, 3},
	"Dialysis Machine": {2, 3},
	"X-Ray Machine":    {3, 4},
	"Patient Monitor":  {4, 2},
	"Infusion Pump":    {6, 1},
	"MRI Scanner":      {6, 8},
}

var defaultCadence = cadence{6, 2}

type Service struct {
	repo        Repository
	equipment   *equipment.Service
	technicians *technician.Service
	codes       db.CodeAllocator
	notifier    notification.Notifier
	now         func() time.Time
	tx          func(ctx context.Context, fn func(context.Context) error) error
}

func NewService(repo Repository, eq *equipment.Service, techs *technician.Service,
	codes db.CodeAllocator, notifier notification.Notifier) *Service {
	return &Service{
		repo:        repo,
		equipment:   eq,
		technicians: techs,
		codes:       codes,
		notifier:    notifier,
		now:         time.Now,
		tx: func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	}
}

// UseTxRunner installs a runner that wraps multi-row writes in a database
// transaction. Without it writes run on the bare pool.
func (s *Service) UseTxRunner(run func(ctx context.Context, fn func(context.Context) error) error) {
	s.tx = run
}

// CreateInput carries a new task. Equipment may be referenced by ID or by code.
type CreateInput struct {
	EquipmentID        *uuid.UUID
	EquipmentCode      string
	MaintenanceType    string
	Priority           string
	Description        *string
	ScheduledDate      time.Time
	ScheduledTime      string
	DurationHours      float64
	TechnicianID       *uuid.UUID
	RecurrenceUnit     string
	RecurrenceInterval int
	RecurrenceEndDate  *time.Time
}

func (in *CreateInput) validate() error {
	if !validMaintenanceTypes[in.MaintenanceType] {
		return fmt.Errorf("%w: unknown maintenance_type %q", ErrValidation, in.MaintenanceType)
	}
	if !validPriorities[in.Priority] {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}
	if !ValidClock(in.ScheduledTime) {
		return fmt.Errorf("%w: scheduled_time %q is not HH:MM", ErrValidation, in.ScheduledTime)
	}
	if in.DurationHours < MinDurationHours || in.DurationHours > MaxDurationHours {
		return fmt.Errorf("%w: estimated_duration_hours must be between %g and %g",
			ErrValidation, MinDurationHours, MaxDurationHours)
	}
	if in.RecurrenceUnit == "" {
		in.RecurrenceUnit = RecurNone
	}
	if !validRecurrenceUnits[in.RecurrenceUnit] {
		return fmt.Errorf("%w: unknown recurrence_unit %q", ErrValidation, in.RecurrenceUnit)
	}
	if in.RecurrenceUnit != RecurNone && in.RecurrenceInterval <= 0 {
		return fmt.Errorf("%w: recurrence_interval must be positive", ErrValidation)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*ScheduledMaintenance, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var eq *equipment.Equipment
	var err error
	switch {
	case in.EquipmentID != nil:
		eq, err = s.equipment.Get(ctx, *in.EquipmentID)
	case in.EquipmentCode != "":
		eq, err = s.equipment.GetByCode(ctx, in.EquipmentCode)
	default:
		return nil, fmt.Errorf("%w: equipment reference is required", ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Next(ctx, db.ScheduleSeq, "SM")
	if err != nil {
		return nil, err
	}

	m := &ScheduledMaintenance{
		ScheduleID:             code,
		EquipmentID:            eq.ID,
		EquipmentCode:          eq.Code,
		MaintenanceType:        in.MaintenanceType,
		Priority:               in.Priority,
		Description:            in.Description,
		ScheduledDate:          in.ScheduledDate,
		ScheduledTime:          in.ScheduledTime,
		EstimatedDurationHours: in.DurationHours,
		Status:                 StatusScheduled,
		RecurrenceUnit:         in.RecurrenceUnit,
		RecurrenceInterval:     in.RecurrenceInterval,
		RecurrenceEndDate:      in.RecurrenceEndDate,
	}

	if in.TechnicianID != nil {
		tech, err := s.technicians.Get(ctx, *in.TechnicianID)
		if err != nil {
			return nil, err
		}
		reason, err := s.technicians.CheckAvailability(ctx, tech, in.ScheduledDate, in.ScheduledTime, in.DurationHours)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrTechnicianUnavailable, reason)
		}
		m.AssignedTechnicianID = &tech.ID
		m.AssignedTechnicianName = &tech.FullName
		m.Status = StatusAssigned
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	if m.AssignedTechnicianID != nil {
		s.notifyAssignment(ctx, m)
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ScheduledMaintenance, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*ScheduledMaintenance, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// UpdateInput carries an edit to an existing task. Nil pointers mean "leave
// unchanged"; the technician reference may be cleared with ClearTechnician.
type UpdateInput struct {
	MaintenanceType    *string
	Priority           *string
	Description        *string
	ScheduledDate      *time.Time
	ScheduledTime      *string
	DurationHours      *float64
	TechnicianID       *uuid.UUID
	ClearTechnician    bool
	RecurrenceUnit     *string
	RecurrenceInterval *int
	RecurrenceEndDate  *time.Time
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*ScheduledMaintenance, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Terminal() {
		return nil, fmt.Errorf("%w: %s task cannot be edited", ErrInvalidTransition, m.Status)
	}

	if in.MaintenanceType != nil {
		if !validMaintenanceTypes[*in.MaintenanceType] {
			return nil, fmt.Errorf("%w: unknown maintenance_type %q", ErrValidation, *in.MaintenanceType)
		}
		m.MaintenanceType = *in.MaintenanceType
	}
	if in.Priority != nil {
		if !validPriorities[*in.Priority] {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *in.Priority)
		}
		m.Priority = *in.Priority
	}
	if in.Description != nil {
		m.Description = in.Description
	}
	if in.ScheduledDate != nil {
		m.ScheduledDate = *in.ScheduledDate
	}
	if in.ScheduledTime != nil {
		if !ValidClock(*in.ScheduledTime) {
			return nil, fmt.Errorf("%w: scheduled_time %q is not HH:MM", ErrValidation, *in.ScheduledTime)
		}
		m.ScheduledTime = *in.ScheduledTime
	}
	if in.DurationHours != nil {
		if *in.DurationHours < MinDurationHours || *in.DurationHours > MaxDurationHours {
			return nil, fmt.Errorf("%w: estimated_duration_hours must be between %g and %g",
				ErrValidation, MinDurationHours, MaxDurationHours)
		}
		m.EstimatedDurationHours = *in.DurationHours
	}
	if in.RecurrenceUnit != nil {
		if !validRecurrenceUnits[*in.RecurrenceUnit] {
			return nil, fmt.Errorf("%w: unknown recurrence_unit %q", ErrValidation, *in.RecurrenceUnit)
		}
		m.RecurrenceUnit = *in.RecurrenceUnit
	}
	if in.RecurrenceInterval != nil {
		m.RecurrenceInterval = *in.RecurrenceInterval
	}
	if in.RecurrenceEndDate != nil {
		m.RecurrenceEndDate = in.RecurrenceEndDate
	}
	if m.RecurrenceUnit != RecurNone && m.RecurrenceInterval <= 0 {
		return nil, fmt.Errorf("%w: recurrence_interval must be positive", ErrValidation)
	}

	switch {
	case in.ClearTechnician:
		m.AssignedTechnicianID = nil
		m.AssignedTechnicianName = nil
		if m.Status == StatusAssigned {
			m.Status = StatusScheduled
		}
	case in.TechnicianID != nil:
		// The name cache follows the reference, never the other way around.
		tech, err := s.technicians.Get(ctx, *in.TechnicianID)
		if err != nil {
			return nil, err
		}
		m.AssignedTechnicianID = &tech.ID
		m.AssignedTechnicianName = &tech.FullName
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Assign puts the task on a technician's plate after the four availability
// predicates pass. Reassignment of an already-assigned task is allowed; the
// row's technician reference simply moves.
func (s *Service) Assign(ctx context.Context, id, technicianID uuid.UUID) (*ScheduledMaintenance, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Terminal() || m.Status == StatusInProgress {
		return nil, fmt.Errorf("%w: cannot assign a %s task", ErrInvalidTransition, m.Status)
	}

	// The current assignee already holds this slot; the task must not be
	// counted against its own technician, so re-posting the assignment skips
	// the availability predicates.
	if m.AssignedTechnicianID != nil && *m.AssignedTechnicianID == technicianID {
		if m.Status == StatusAssigned {
			return m, nil
		}
		m.Status = StatusAssigned
		if err := s.repo.Update(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	}

	// The capacity re-check and the row update share a transaction so two
	// concurrent assignments cannot both pass the capacity predicate.
	err = s.tx(ctx, func(ctx context.Context) error {
		tech, err := s.technicians.Get(ctx, technicianID)
		if err != nil {
			return err
		}
		reason, err := s.technicians.CheckAvailability(ctx, tech, m.ScheduledDate, m.ScheduledTime, m.EstimatedDurationHours)
		if err != nil {
			return err
		}
		if reason != "" {
			return fmt.Errorf("%w: %s", ErrTechnicianUnavailable, reason)
		}

		m.AssignedTechnicianID = &tech.ID
		m.AssignedTechnicianName = &tech.FullName
		m.Status = StatusAssigned
		return s.repo.Update(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.notifyAssignment(ctx, m)
	return m, nil
}

// SetStatus applies a lifecycle transition. Completion must go through
// Complete so the completion fields are recorded.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*ScheduledMaintenance, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if status == StatusCompleted {
		return nil, fmt.Errorf("%w: use the completion endpoint to complete a task", ErrValidation)
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Terminal() {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, m.Status)
	}

	m.Status = status
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	// Starting or cancelling work changes what counts as active for the
	// equipment, so re-derive its status either way.
	if status == StatusInProgress || status == StatusCancelled {
		if _, err := s.equipment.SyncStatus(ctx, m.EquipmentID); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// CompleteInput carries the completion report for a task.
type CompleteInput struct {
	Notes                *string
	ActualDurationHours  *float64
	ActualCost           *float64
	EquipmentStatusAfter string
}

// Complete closes the task, re-derives the equipment status, and spawns the
// next occurrence for recurring tasks. The follow-up date is computed from the
// original scheduled date, so a late completion does not shift the chain.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, in CompleteInput) (*ScheduledMaintenance, *ScheduledMaintenance, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if m.Status == StatusCompleted {
		return nil, nil, ErrAlreadyCompleted
	}
	if m.Status == StatusCancelled {
		return nil, nil, fmt.Errorf("%w: cancelled task cannot be completed", ErrInvalidTransition)
	}

	now := s.now()
	m.Status = StatusCompleted
	m.CompletedAt = &now
	m.CompletionNotes = in.Notes
	m.ActualDurationHours = in.ActualDurationHours
	m.ActualCost = in.ActualCost
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, nil, err
	}

	if in.EquipmentStatusAfter != "" {
		if _, err := s.equipment.ForceStatus(ctx, m.EquipmentID, in.EquipmentStatusAfter); err != nil {
			return nil, nil, err
		}
	} else {
		if _, err := s.equipment.SyncStatus(ctx, m.EquipmentID); err != nil {
			return nil, nil, err
		}
	}

	s.notifier.Notify(ctx, notification.RoleAdmin, nil, "maintenance-completed", map[string]string{
		"schedule_id":      m.ScheduleID,
		"maintenance_type": m.MaintenanceType,
		"equipment_name":   m.EquipmentCode,
		"technician":       derefOr(m.AssignedTechnicianName, "unassigned"),
	})

	spawned, err := s.spawnNext(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	return m, spawned, nil
}

func (s *Service) spawnNext(ctx context.Context, m *ScheduledMaintenance) (*ScheduledMaintenance, error) {
	if !m.Recurs() {
		return nil, nil
	}
	next := NextOccurrence(m.ScheduledDate, m.RecurrenceUnit, m.RecurrenceInterval)
	if m.RecurrenceEndDate != nil && next.After(*m.RecurrenceEndDate) {
		return nil, nil
	}

	code, err := s.codes.Next(ctx, db.ScheduleSeq, "SM")
	if err != nil {
		return nil, err
	}
	spawned := &ScheduledMaintenance{
		ScheduleID:             code,
		EquipmentID:            m.EquipmentID,
		EquipmentCode:          m.EquipmentCode,
		MaintenanceType:        m.MaintenanceType,
		Priority:               m.Priority,
		Description:            m.Description,
		ScheduledDate:          next,
		ScheduledTime:          m.ScheduledTime,
		EstimatedDurationHours: m.EstimatedDurationHours,
		Status:                 StatusScheduled,
		RecurrenceUnit:         m.RecurrenceUnit,
		RecurrenceInterval:     m.RecurrenceInterval,
		RecurrenceEndDate:      m.RecurrenceEndDate,
	}
	if err := s.repo.Create(ctx, spawned); err != nil {
		return nil, err
	}
	return spawned, nil
}

// AutoSchedule creates the next preventive task for a piece of equipment based
// on the cadence table for its type.
func (s *Service) AutoSchedule(ctx context.Context, equipmentID uuid.UUID) (*ScheduledMaintenance, error) {
	eq, err := s.equipment.Get(ctx, equipmentID)
	if err != nil {
		return nil, err
	}

	c, ok := cadenceByType[eq.EquipmentType]
	if !ok {
		c = defaultCadence
	}

	code, err := s.codes.Next(ctx, db.ScheduleSeq, "SM")
	if err != nil {
		return nil, err
	}
	m := &ScheduledMaintenance{
		ScheduleID:             code,
		EquipmentID:            eq.ID,
		EquipmentCode:          eq.Code,
		MaintenanceType:        "preventive",
		Priority:               "medium",
		ScheduledDate:          s.now().AddDate(0, c.IntervalMonths, 0),
		ScheduledTime:          "09:00",
		EstimatedDurationHours: c.DurationHours,
		Status:                 StatusScheduled,
		RecurrenceUnit:         RecurMonthly,
		RecurrenceInterval:     c.IntervalMonths,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CalendarView is the month listing with aggregated stats.
type CalendarView struct {
	Year                int                     `json:"year"`
	Month               int                     `json:"month"`
	Tasks               []*ScheduledMaintenance `json:"tasks"`
	CountsByStatus      map[string]int          `json:"counts_by_status"`
	TotalEstimatedHours float64                 `json:"total_estimated_hours"`
	CompletedCount      int                     `json:"completed_count"`
}

func (s *Service) Calendar(ctx context.Context, year, month int) (*CalendarView, error) {
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("%w: year out of range", ErrValidation)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be 1-12", ErrValidation)
	}

	tasks, err := s.repo.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}

	view := &CalendarView{
		Year:           year,
		Month:          month,
		Tasks:          tasks,
		CountsByStatus: make(map[string]int),
	}
	for _, t := range tasks {
		view.CountsByStatus[t.Status]++
		view.TotalEstimatedHours += t.EstimatedDurationHours
		if t.Status == StatusCompleted {
			view.CompletedCount++
		}
	}
	return view, nil
}

func (s *Service) notifyAssignment(ctx context.Context, m *ScheduledMaintenance) {
	s.notifier.Notify(ctx, notification.RoleTechnician, m.AssignedTechnicianID, "maintenance-assigned", map[string]string{
		"schedule_id":      m.ScheduleID,
		"maintenance_type": m.MaintenanceType,
		"equipment_name":   m.EquipmentCode,
		"date":             m.ScheduledDate.Format("2006-01-02"),
		"time":             m.ScheduledTime,
	})
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

package request

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

// Common errors returned by the request service.
var (
	ErrNotFound          = errors.New("maintenance request not found")
	ErrValidation        = errors.New("invalid request data")
	ErrAlreadyCompleted  = errors.New("request is already completed")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Service struct {
	repo        Repository
	equipment   *equipment.Service
	technicians *technician.Service
	codes       db.CodeAllocator
	notifier    notification.Notifier
	now         func() time.Time
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
	}
}

// CreateInput carries a new ticket.
type CreateInput struct {
	Title       string
	Description *string
	Priority    string
	EquipmentID *uuid.UUID
	ReportedBy  string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*MaintenanceRequest, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !validPriorities[in.Priority] {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}
	if in.ReportedBy == "" {
		return nil, fmt.Errorf("%w: reported_by is required", ErrValidation)
	}

	if in.EquipmentID != nil {
		if _, err := s.equipment.Get(ctx, *in.EquipmentID); err != nil {
			return nil, err
		}
	}

	code, err := s.codes.Next(ctx, db.RequestSeq, "MR")
	if err != nil {
		return nil, err
	}
	r := &MaintenanceRequest{
		RequestID:   code,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      StatusOpen,
		EquipmentID: in.EquipmentID,
		ReportedBy:  in.ReportedBy,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}

	// A critical breakdown flags the equipment until the ticket closes.
	if r.Priority == "critical" && r.EquipmentID != nil {
		if _, err := s.equipment.SyncStatus(ctx, *r.EquipmentID); err != nil {
			return nil, err
		}
	}

	s.notifier.Notify(ctx, notification.RoleAdmin, nil, "request-opened", map[string]string{
		"request_id":  r.RequestID,
		"priority":    r.Priority,
		"reported_by": r.ReportedBy,
		"title":       r.Title,
	})
	return r, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*MaintenanceRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*MaintenanceRequest, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// UpdateInput carries an edit to an open ticket.
type UpdateInput struct {
	Title       *string
	Description *string
	Priority    *string
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*MaintenanceRequest, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Terminal() {
		return nil, fmt.Errorf("%w: %s request cannot be edited", ErrInvalidTransition, r.Status)
	}

	priorityChanged := false
	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrValidation)
		}
		r.Title = *in.Title
	}
	if in.Description != nil {
		r.Description = in.Description
	}
	if in.Priority != nil {
		if !validPriorities[*in.Priority] {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *in.Priority)
		}
		priorityChanged = r.Priority != *in.Priority
		r.Priority = *in.Priority
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	if priorityChanged && r.EquipmentID != nil {
		if _, err := s.equipment.SyncStatus(ctx, *r.EquipmentID); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Assign hands the ticket to a technician after the request-capacity check.
func (s *Service) Assign(ctx context.Context, id, technicianID uuid.UUID) (*MaintenanceRequest, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Terminal() {
		return nil, fmt.Errorf("%w: cannot assign a %s request", ErrInvalidTransition, r.Status)
	}

	tech, err := s.technicians.Get(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	reason, err := s.technicians.CanAcceptRequest(ctx, tech)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return nil, fmt.Errorf("%w: %s", technician.ErrUnavailable, reason)
	}

	r.AssignedTechnicianID = &tech.ID
	r.AssignedTechnicianName = &tech.FullName
	if r.Status == StatusOpen {
		r.Status = StatusInProgress
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SetStatus applies a lifecycle transition. Completion must go through
// Complete so the resolution fields are recorded.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*MaintenanceRequest, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if status == StatusCompleted {
		return nil, fmt.Errorf("%w: use the completion endpoint to complete a request", ErrValidation)
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Terminal() {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, r.Status)
	}

	r.Status = status
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	if status == StatusCancelled && r.EquipmentID != nil {
		if _, err := s.equipment.SyncStatus(ctx, *r.EquipmentID); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Complete resolves the ticket and releases the equipment flag.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, resolutionNotes *string) (*MaintenanceRequest, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if r.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: cancelled request cannot be completed", ErrInvalidTransition)
	}

	now := s.now()
	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.ResolutionNotes = resolutionNotes
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	if r.EquipmentID != nil {
		if _, err := s.equipment.SyncStatus(ctx, *r.EquipmentID); err != nil {
			return nil, err
		}
	}

	s.notifier.Notify(ctx, notification.RoleAdmin, nil, "request-completed", map[string]string{
		"request_id": r.RequestID,
		"title":      r.Title,
	})
	return r, nil
}

package equipment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the equipment service.
var (
	ErrNotFound      = errors.New("equipment not found")
	ErrInvalidStatus = errors.New("invalid equipment status")
)

var validStatuses = map[string]bool{
	StatusOperational: true, StatusUnderMaintenance: true,
	StatusNeedsRepair: true, StatusOutOfService: true,
}

// ActivityProbe reports the maintenance work currently attached to a piece of
// equipment. Implemented over the maintenance and request repositories; kept as
// an interface here so this package does not import the domains that depend on it.
type ActivityProbe interface {
	EquipmentActivity(ctx context.Context, equipmentID uuid.UUID) (Activity, error)
}

type Service struct {
	repo  Repository
	probe ActivityProbe
	now   func() time.Time
}

func NewService(repo Repository, probe ActivityProbe) *Service {
	return &Service{repo: repo, probe: probe, now: time.Now}
}

func (s *Service) Create(ctx context.Context, e *Equipment) error {
	if e.Code == "" {
		return fmt.Errorf("code is required")
	}
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	if e.EquipmentType == "" {
		return fmt.Errorf("equipment_type is required")
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Equipment, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Equipment, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// SyncStatus re-derives the equipment status from the currently active
// maintenance records and persists it. Every trigger (task transitions, ticket
// transitions, the due sweep) goes through here; no other code writes the
// status column.
func (s *Service) SyncStatus(ctx context.Context, equipmentID uuid.UUID) (*Equipment, error) {
	activity, err := s.probe.EquipmentActivity(ctx, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("probe equipment activity: %w", err)
	}
	return s.applyStatus(ctx, equipmentID, func(e *Equipment) string {
		return DeriveStatus(e.OutOfService, activity)
	})
}

// ForceStatus overrides the derived status, used when a completion payload
// carries an explicit equipment_status_after. An Out of Service override sets
// the manual flag so subsequent derivations keep honoring it.
func (s *Service) ForceStatus(ctx context.Context, equipmentID uuid.UUID, status string) (*Equipment, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return s.applyStatus(ctx, equipmentID, func(e *Equipment) string {
		e.OutOfService = status == StatusOutOfService
		return status
	})
}

func (s *Service) applyStatus(ctx context.Context, equipmentID uuid.UUID, next func(*Equipment) string) (*Equipment, error) {
	e, err := s.repo.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}

	target := next(e)
	if target == e.Status {
		// No redundant write when the derived status already holds.
		return e, nil
	}

	now := s.now()
	if e.Status == StatusOperational && target != StatusOperational {
		e.DowntimeStartedAt = &now
	}
	if target == StatusOperational && e.DowntimeStartedAt != nil {
		e.DowntimeHours += now.Sub(*e.DowntimeStartedAt).Hours()
		e.DowntimeStartedAt = nil
	}

	e.Status = target
	if err := s.repo.UpdateStatus(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

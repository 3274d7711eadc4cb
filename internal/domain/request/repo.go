package request

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status       string
	Priority     string
	EquipmentID  *uuid.UUID
	TechnicianID *uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, r *MaintenanceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*MaintenanceRequest, error)
	GetByRequestID(ctx context.Context, requestID string) (*MaintenanceRequest, error)
	Update(ctx context.Context, r *MaintenanceRequest) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*MaintenanceRequest, int, error)

	// HasOpenCriticalRequest feeds equipment status derivation: a critical
	// breakdown ticket keeps its equipment flagged Needs Repair while open.
	HasOpenCriticalRequest(ctx context.Context, equipmentID uuid.UUID) (bool, error)

	// CountOpenByTechnician backs the request-capacity predicate.
	CountOpenByTechnician(ctx context.Context, technicianID uuid.UUID) (int, error)
}

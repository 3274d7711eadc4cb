package equipment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Equipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error)
	GetByCode(ctx context.Context, code string) (*Equipment, error)
	List(ctx context.Context, limit, offset int) ([]*Equipment, int, error)
	// UpdateStatus persists a status transition together with the downtime
	// bookkeeping fields. It is called only from Service status paths.
	UpdateStatus(ctx context.Context, e *Equipment) error
}

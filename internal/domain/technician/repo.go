package technician

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Technician) error
	GetByID(ctx context.Context, id uuid.UUID) (*Technician, error)
	Update(ctx context.Context, t *Technician) error
	List(ctx context.Context, limit, offset int) ([]*Technician, int, error)
	ListEmployed(ctx context.Context) ([]*Technician, error)
}

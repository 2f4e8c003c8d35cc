package clerking

import (
	"context"

	"github.com/google/uuid"
)

type ClerkingRepository interface {
	Create(ctx context.Context, c *Clerking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clerking, error)
	Update(ctx context.Context, c *Clerking) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Clerking, int, error)
}

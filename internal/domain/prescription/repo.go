package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PrescriptionRepository interface {
	// Create stores the prescription together with its items.
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// Update overwrites the descriptive fields and replaces the item list.
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Prescription, int, error)
	// SetStatus moves a prescription from one status to another. It fails
	// with a conflict when the stored status is no longer from.
	SetStatus(ctx context.Context, id uuid.UUID, from, to Status, at *time.Time) error
}

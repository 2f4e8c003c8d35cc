package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

type DrugRepository interface {
	Create(ctx context.Context, d *Drug) error
	GetByID(ctx context.Context, id uuid.UUID) (*Drug, error)
	Update(ctx context.Context, d *Drug) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Drug, int, error)
	// AdjustStock adds delta to the stock of a drug and returns the updated
	// row. A result below zero is a conflict and leaves the stock unchanged.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Drug, error)
}

type DispensationRepository interface {
	Create(ctx context.Context, d *Dispensation) error
	ListByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*Dispensation, error)
}

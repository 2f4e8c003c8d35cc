package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// Update writes the descriptive fields only; status and workflow
	// timestamps change through Transition.
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
	// Transition persists a when the stored status still equals from, and
	// returns a conflict otherwise.
	Transition(ctx context.Context, a *Appointment, from Status) error
	// CancelUnpaidBefore cancels pending_payment appointments created before
	// cutoff and returns how many were cancelled.
	CancelUnpaidBefore(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

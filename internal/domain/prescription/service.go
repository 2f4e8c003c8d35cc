package prescription

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
)

type Service struct {
	prescriptions PrescriptionRepository
	tx            db.TxRunner
	now           func() time.Time
}

func NewService(prescriptions PrescriptionRepository, tx db.TxRunner) *Service {
	return &Service{prescriptions: prescriptions, tx: tx, now: time.Now}
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return apperr.Validation("a prescription needs at least one item")
	}
	for i := range items {
		it := &items[i]
		it.DrugName = strings.TrimSpace(it.DrugName)
		if it.DrugName == "" {
			return apperr.Validation("items[%d].drug_name is required", i)
		}
		if it.Quantity <= 0 {
			return apperr.Validation("items[%d].quantity must be greater than 0", i)
		}
		if it.Route != nil {
			r := strings.ToLower(strings.TrimSpace(*it.Route))
			if !slices.Contains(routes, r) {
				return apperr.Validation("items[%d].route must be one of: %s", i, strings.Join(routes, ", "))
			}
			it.Route = &r
		}
	}
	return nil
}

// CreatePrescription stores a new active prescription.
func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if err := validateItems(p.Items); err != nil {
		return err
	}
	p.Status = StatusActive
	p.DispensedAt = nil
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.prescriptions.Create(ctx, p)
	})
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) SearchPrescriptions(ctx context.Context, params map[string]string, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.Search(ctx, params, limit, offset)
}

// UpdatePrescription rewrites notes and items. Only active prescriptions can
// be edited.
func (s *Service) UpdatePrescription(ctx context.Context, p *Prescription) error {
	if err := validateItems(p.Items); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.prescriptions.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if current.Status != StatusActive {
			return apperr.Conflict("cannot edit a %s prescription", current.Status)
		}
		return s.prescriptions.Update(ctx, p)
	})
}

// CancelPrescription moves an active prescription to cancelled. The reason,
// when given, is appended to the notes.
func (s *Service) CancelPrescription(ctx context.Context, id uuid.UUID, reason string) (*Prescription, error) {
	var out *Prescription
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.prescriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != StatusActive {
			return apperr.Conflict("cannot cancel a %s prescription", p.Status)
		}
		if reason = strings.TrimSpace(reason); reason != "" {
			notes := "Cancelled: " + reason
			if p.Notes != nil && *p.Notes != "" {
				notes = *p.Notes + "\n" + notes
			}
			p.Notes = &notes
			if err := s.prescriptions.Update(ctx, p); err != nil {
				return err
			}
		}
		if err := s.prescriptions.SetStatus(ctx, id, StatusActive, StatusCancelled, nil); err != nil {
			return err
		}
		out, err = s.prescriptions.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePrescription removes a prescription that was never dispensed.
func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.prescriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == StatusDispensed {
			return apperr.Conflict("dispensed prescriptions cannot be deleted")
		}
		return s.prescriptions.Delete(ctx, id)
	})
}

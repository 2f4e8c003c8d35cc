package pharmacy

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/prescription"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/metrics"
)

// PrescriptionStore is the part of the prescription repository the
// pharmacy needs to dispense.
type PrescriptionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error)
	SetStatus(ctx context.Context, id uuid.UUID, from, to prescription.Status, at *time.Time) error
}

type Service struct {
	drugs         DrugRepository
	dispensations DispensationRepository
	prescriptions PrescriptionStore
	tx            db.TxRunner
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(drugs DrugRepository, dispensations DispensationRepository, prescriptions PrescriptionStore, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		drugs:         drugs,
		dispensations: dispensations,
		prescriptions: prescriptions,
		tx:            tx,
		logger:        logger,
		now:           time.Now,
	}
}

func validateDrug(d *Drug) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return apperr.Validation("name is required")
	}
	if d.UnitPrice < 0 {
		return apperr.Validation("unit_price cannot be negative")
	}
	if d.StockQuantity < 0 {
		return apperr.Validation("stock_quantity cannot be negative")
	}
	if d.ReorderLevel < 0 {
		return apperr.Validation("reorder_level cannot be negative")
	}
	d.UnitPrice = fromCents(toCents(d.UnitPrice))
	return nil
}

func (s *Service) CreateDrug(ctx context.Context, d *Drug) error {
	if err := validateDrug(d); err != nil {
		return err
	}
	return s.drugs.Create(ctx, d)
}

func (s *Service) GetDrug(ctx context.Context, id uuid.UUID) (*Drug, error) {
	return s.drugs.GetByID(ctx, id)
}

// UpdateDrug edits the catalogue entry. The stock level is not writable here.
func (s *Service) UpdateDrug(ctx context.Context, d *Drug) error {
	d.StockQuantity = 0
	if err := validateDrug(d); err != nil {
		return err
	}
	return s.drugs.Update(ctx, d)
}

func (s *Service) DeleteDrug(ctx context.Context, id uuid.UUID) error {
	return s.drugs.Delete(ctx, id)
}

func (s *Service) SearchDrugs(ctx context.Context, params map[string]string, limit, offset int) ([]*Drug, int, error) {
	return s.drugs.Search(ctx, params, limit, offset)
}

// LowStock lists drugs whose stock is at or below their reorder level.
func (s *Service) LowStock(ctx context.Context, limit, offset int) ([]*Drug, int, error) {
	return s.drugs.Search(ctx, map[string]string{"low_stock": "true"}, limit, offset)
}

// AdjustStock applies a manual stock correction such as a delivery or a
// write-off.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, adj StockAdjustment) (*Drug, error) {
	if adj.Delta == 0 {
		return nil, apperr.Validation("delta must not be zero")
	}
	d, err := s.drugs.AdjustStock(ctx, id, adj.Delta)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("drug_id", id.String()).
		Int("delta", adj.Delta).
		Int("stock", d.StockQuantity).
		Str("reason", adj.Reason).
		Str("user", auth.UsernameFromContext(ctx)).
		Msg("stock adjusted")
	return d, nil
}

// Dispense takes every linked item of an active prescription out of stock,
// marks the prescription dispensed and records the dispensation. Either all
// of it happens or none of it does.
func (s *Service) Dispense(ctx context.Context, prescriptionID uuid.UUID) (*Dispensation, error) {
	out := &Dispensation{PrescriptionID: prescriptionID}
	if name := auth.UsernameFromContext(ctx); name != "" {
		out.DispensedBy = &name
	}

	var units int
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.prescriptions.GetByID(ctx, prescriptionID)
		if err != nil {
			return err
		}
		if p.Status != prescription.StatusActive {
			return apperr.Conflict("cannot dispense a %s prescription", p.Status)
		}

		var total int64
		out.Lines = make([]DispensedLine, 0, len(p.Items))
		for _, it := range p.Items {
			line := DispensedLine{DrugID: it.DrugID, DrugName: it.DrugName, Quantity: it.Quantity}
			if it.DrugID != nil {
				d, err := s.drugs.AdjustStock(ctx, *it.DrugID, -it.Quantity)
				if err != nil {
					return err
				}
				amount := toCents(d.UnitPrice) * int64(it.Quantity)
				total += amount
				units += it.Quantity
				remaining := d.StockQuantity
				line.UnitPrice = d.UnitPrice
				line.Amount = fromCents(amount)
				line.Remaining = &remaining
			}
			out.Lines = append(out.Lines, line)
		}

		at := s.now()
		if err := s.prescriptions.SetStatus(ctx, p.ID, prescription.StatusActive, prescription.StatusDispensed, &at); err != nil {
			return err
		}
		out.TotalAmount = fromCents(total)
		return s.dispensations.Create(ctx, out)
	})
	if err != nil {
		return nil, err
	}

	metrics.UnitsDispensed.Add(float64(units))
	s.logger.Info().
		Str("prescription_id", prescriptionID.String()).
		Int("units", units).
		Float64("total", out.TotalAmount).
		Msg("prescription dispensed")
	return out, nil
}

func (s *Service) ListDispensations(ctx context.Context, prescriptionID uuid.UUID) ([]*Dispensation, error) {
	if _, err := s.prescriptions.GetByID(ctx, prescriptionID); err != nil {
		return nil, err
	}
	return s.dispensations.ListByPrescription(ctx, prescriptionID)
}

package appointment

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/metrics"
)

var paymentMethods = []string{"cash", "card", "transfer", "insurance"}

// PaymentRecorder books the money taken by record_payment. It runs inside
// the transition's transaction.
type PaymentRecorder interface {
	RecordAppointmentPayment(ctx context.Context, a *Appointment) error
}

// PaymentRecorderFunc adapts a function to PaymentRecorder.
type PaymentRecorderFunc func(ctx context.Context, a *Appointment) error

func (f PaymentRecorderFunc) RecordAppointmentPayment(ctx context.Context, a *Appointment) error {
	return f(ctx, a)
}

type Service struct {
	appointments AppointmentRepository
	payments     PaymentRecorder
	tx           db.TxRunner
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(appointments AppointmentRepository, payments PaymentRecorder, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appointments,
		payments:     payments,
		tx:           tx,
		logger:       logger.With().Str("component", "appointment").Logger(),
		now:          time.Now,
	}
}

// CreateAppointment books a new appointment. Every appointment starts in
// pending_payment whatever status the caller sent.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if a.Fee < 0 {
		return apperr.Validation("fee cannot be negative")
	}
	a.Status = StatusPendingPayment
	a.PaymentAmount, a.PaymentMethod, a.PaymentReference, a.PaidAt = nil, nil, nil, nil
	a.StartedAt, a.CompletedAt, a.CancelledAt, a.CancelReason = nil, nil, nil, nil
	return s.appointments.Create(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) SearchAppointments(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.Search(ctx, params, limit, offset)
}

// UpdateAppointment changes descriptive fields. The fee is fixed once
// payment has been taken; the status never changes here.
func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	existing, err := s.appointments.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if existing.Status.Terminal() {
		return apperr.Conflict("appointment is %s and can no longer be edited", existing.Status)
	}
	if a.Fee < 0 {
		return apperr.Validation("fee cannot be negative")
	}
	if a.Fee != existing.Fee && existing.Status != StatusPendingPayment {
		return apperr.Conflict("fee cannot change once the appointment is %s", existing.Status)
	}
	a.PatientID = existing.PatientID
	a.Status = existing.Status
	return s.appointments.Update(ctx, a)
}

// DeleteAppointment removes appointments that never progressed past
// booking.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	existing, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status != StatusPendingPayment && existing.Status != StatusCancelled {
		return apperr.Conflict("cannot delete an appointment with status %s", existing.Status)
	}
	return s.appointments.Delete(ctx, id)
}

// Apply runs one state machine action against the appointment.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, req ActionRequest) (*Appointment, error) {
	current, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := Next(current.Status, req.Action)
	if err != nil {
		return nil, err
	}

	updated := *current
	now := s.now()
	switch req.Action {
	case ActionRecordPayment:
		amount := current.Fee
		if req.Amount != nil {
			amount = *req.Amount
		}
		if toCents(amount) != toCents(current.Fee) {
			return nil, apperr.Validation("amount %.2f does not match the fee of %.2f", amount, current.Fee)
		}
		updated.PaymentAmount = &amount
		updated.PaidAt = &now
		// Free appointments are waived straight to paid with nothing to bill.
		if toCents(current.Fee) > 0 {
			method := strings.ToLower(strings.TrimSpace(req.Method))
			if !slices.Contains(paymentMethods, method) {
				return nil, apperr.Validation("method must be one of: %s", strings.Join(paymentMethods, ", "))
			}
			updated.PaymentMethod = &method
			updated.PaymentReference = req.Reference
		}
	case ActionAllocate:
		if req.StaffID == nil || *req.StaffID == uuid.Nil {
			return nil, apperr.Validation("staff_id is required to allocate an appointment")
		}
		if req.ScheduledAt == nil {
			return nil, apperr.Validation("scheduled_at is required to allocate an appointment")
		}
		updated.StaffID = req.StaffID
		updated.ScheduledAt = req.ScheduledAt
		if req.FacilityID != nil {
			updated.FacilityID = req.FacilityID
		}
	case ActionStart:
		updated.StartedAt = &now
	case ActionFinish:
		updated.CompletedAt = &now
		if req.Notes != nil {
			updated.Notes = req.Notes
		}
	case ActionCancel:
		updated.CancelledAt = &now
		updated.CancelReason = req.Reason
	}
	updated.Status = next

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.Transition(ctx, &updated, current.Status); err != nil {
			return err
		}
		if req.Action == ActionRecordPayment && s.payments != nil && toCents(current.Fee) > 0 {
			if err := s.payments.RecordAppointmentPayment(ctx, &updated); err != nil {
				return fmt.Errorf("record payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AppointmentTransitions.WithLabelValues(string(req.Action)).Inc()
	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("action", string(req.Action)).
		Str("from", string(current.Status)).
		Str("to", string(next)).
		Str("user", auth.UsernameFromContext(ctx)).
		Msg("appointment transition")
	return &updated, nil
}

// CancelStaleUnpaid cancels appointments left in pending_payment for longer
// than olderThan.
func (s *Service) CancelStaleUnpaid(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)
	reason := fmt.Sprintf("payment not received within %s", olderThan)
	n, err := s.appointments.CancelUnpaidBefore(ctx, cutoff, reason)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AppointmentTransitions.WithLabelValues(string(ActionCancel)).Add(float64(n))
		s.logger.Info().Int64("count", n).Time("cutoff", cutoff).Msg("cancelled unpaid appointments")
	}
	return n, nil
}

func toCents(v float64) int64 { return int64(math.Round(v * 100)) }

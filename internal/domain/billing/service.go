package billing

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/ident"
)

type Service struct {
	invoices InvoiceRepository
	tx       db.TxRunner
	now      func() time.Time
}

func NewService(invoices InvoiceRepository, tx db.TxRunner) *Service {
	return &Service{invoices: invoices, tx: tx, now: time.Now}
}

func (s *Service) newInvoiceNumber() string {
	return ident.Code("INV-"+s.now().UTC().Format("20060102")+"-", 6)
}

// CreateInvoice prices every item and stores the invoice as unpaid.
func (s *Service) CreateInvoice(ctx context.Context, inv *Invoice) error {
	if inv.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if len(inv.Items) == 0 {
		return apperr.Validation("an invoice needs at least one item")
	}
	var total int64
	for i := range inv.Items {
		item := &inv.Items[i]
		item.Description = strings.TrimSpace(item.Description)
		if item.Description == "" {
			return apperr.Validation("items[%d].description is required", i)
		}
		if item.Quantity <= 0 {
			return apperr.Validation("items[%d].quantity must be greater than 0", i)
		}
		if item.UnitPrice < 0 {
			return apperr.Validation("items[%d].unit_price cannot be negative", i)
		}
		amount := toCents(item.UnitPrice) * int64(item.Quantity)
		item.Amount = fromCents(amount)
		total += amount
	}

	inv.Total = fromCents(total)
	inv.AmountPaid = 0
	inv.Status = statusFor(total, 0)
	inv.Payments = nil
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = s.now()
	}
	inv.InvoiceNumber = s.newInvoiceNumber()
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.invoices.Create(ctx, inv)
	})
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *Service) SearchInvoices(ctx context.Context, params map[string]string, limit, offset int) ([]*Invoice, int, error) {
	return s.invoices.Search(ctx, params, limit, offset)
}

func (s *Service) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	if _, err := s.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.invoices.ListPayments(ctx, invoiceID)
}

// RecordPayment applies p to the invoice and recomputes amount_paid and
// status under a row lock. Payments larger than the balance are rejected.
func (s *Service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, p *Payment) (*Invoice, error) {
	p.Method = strings.ToLower(strings.TrimSpace(p.Method))
	if !slices.Contains(paymentMethods, p.Method) {
		return nil, apperr.Validation("method must be one of: %s", strings.Join(paymentMethods, ", "))
	}
	amount := toCents(p.Amount)
	if amount <= 0 {
		return nil, apperr.Validation("amount must be greater than 0")
	}
	if p.ReceivedBy == nil {
		if name := auth.UsernameFromContext(ctx); name != "" {
			p.ReceivedBy = &name
		}
	}

	var out *Invoice
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == InvoiceVoid {
			return apperr.Conflict("invoice %s is void", inv.InvoiceNumber)
		}
		totalCents, paidCents := toCents(inv.Total), toCents(inv.AmountPaid)
		if amount > totalCents-paidCents {
			return apperr.Conflict("payment of %.2f exceeds outstanding balance of %.2f", p.Amount, fromCents(totalCents-paidCents))
		}

		p.InvoiceID = inv.ID
		p.Amount = fromCents(amount)
		if p.PaidAt.IsZero() {
			p.PaidAt = s.now()
		}
		if err := s.invoices.AddPayment(ctx, p); err != nil {
			return err
		}
		paidCents += amount
		if err := s.invoices.SetPaid(ctx, inv.ID, fromCents(paidCents), statusFor(totalCents, paidCents)); err != nil {
			return err
		}
		out, err = s.invoices.GetByID(ctx, inv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SettleAppointment issues a single-line invoice for an appointment fee and
// pays it in full. It joins the caller's transaction when there is one.
func (s *Service) SettleAppointment(ctx context.Context, ch AppointmentCharge) (*Invoice, error) {
	desc := ch.Description
	if desc == "" {
		desc = "Consultation fee"
	}
	appointmentID := ch.AppointmentID
	var out *Invoice
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		inv := &Invoice{
			PatientID:     ch.PatientID,
			AppointmentID: &appointmentID,
			Items:         []Item{{Description: desc, Quantity: 1, UnitPrice: ch.Amount}},
		}
		if err := s.CreateInvoice(ctx, inv); err != nil {
			return err
		}
		var err error
		out, err = s.RecordPayment(ctx, inv.ID, &Payment{Amount: ch.Amount, Method: ch.Method, Reference: ch.Reference})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// VoidInvoice cancels an invoice that has not received any payment.
func (s *Service) VoidInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var out *Invoice
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status == InvoiceVoid {
			return apperr.Conflict("invoice %s is already void", inv.InvoiceNumber)
		}
		if toCents(inv.AmountPaid) > 0 {
			return apperr.Conflict("invoice %s has payments and cannot be voided", inv.InvoiceNumber)
		}
		if err := s.invoices.SetStatus(ctx, id, InvoiceVoid); err != nil {
			return err
		}
		out, err = s.invoices.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteInvoice removes an invoice with no payments.
func (s *Service) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if toCents(inv.AmountPaid) > 0 {
			return apperr.Conflict("invoice %s has payments and cannot be deleted", inv.InvoiceNumber)
		}
		return s.invoices.Delete(ctx, id)
	})
}

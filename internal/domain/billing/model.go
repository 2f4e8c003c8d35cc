package billing

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoiceUnpaid        InvoiceStatus = "unpaid"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceVoid          InvoiceStatus = "void"
)

var paymentMethods = []string{"cash", "card", "transfer", "insurance"}

type Invoice struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	InvoiceNumber string        `db:"invoice_number" json:"invoice_number"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id" validate:"required"`
	AppointmentID *uuid.UUID    `db:"appointment_id" json:"appointment_id,omitempty"`
	Status        InvoiceStatus `db:"status" json:"status"`
	Total         float64       `db:"total" json:"total"`
	AmountPaid    float64       `db:"amount_paid" json:"amount_paid"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
	IssuedAt      time.Time     `db:"issued_at" json:"issued_at"`
	Items         []Item        `json:"items" validate:"required,min=1,dive"`
	Payments      []Payment     `json:"payments,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Balance is the amount still owed.
func (inv *Invoice) Balance() float64 {
	return fromCents(toCents(inv.Total) - toCents(inv.AmountPaid))
}

type Item struct {
	ID          uuid.UUID `db:"id" json:"id"`
	InvoiceID   uuid.UUID `db:"invoice_id" json:"invoice_id"`
	Description string    `db:"description" json:"description" validate:"required"`
	Quantity    int       `db:"quantity" json:"quantity" validate:"gt=0"`
	UnitPrice   float64   `db:"unit_price" json:"unit_price" validate:"gte=0"`
	Amount      float64   `db:"amount" json:"amount"`
}

type Payment struct {
	ID         uuid.UUID `db:"id" json:"id"`
	InvoiceID  uuid.UUID `db:"invoice_id" json:"invoice_id"`
	Amount     float64   `db:"amount" json:"amount" validate:"gt=0"`
	Method     string    `db:"method" json:"method" validate:"required"`
	Reference  *string   `db:"reference" json:"reference,omitempty"`
	ReceivedBy *string   `db:"received_by" json:"received_by,omitempty"`
	PaidAt     time.Time `db:"paid_at" json:"paid_at"`
}

// AppointmentCharge describes a consultation fee collected when an
// appointment is paid.
type AppointmentCharge struct {
	PatientID     uuid.UUID
	AppointmentID uuid.UUID
	Description   string
	Amount        float64
	Method        string
	Reference     *string
}

// Amounts are compared in whole cents.
func toCents(v float64) int64 { return int64(math.Round(v * 100)) }

func fromCents(c int64) float64 { return float64(c) / 100 }

func statusFor(totalCents, paidCents int64) InvoiceStatus {
	switch {
	case paidCents >= totalCents:
		return InvoicePaid
	case paidCents > 0:
		return InvoicePartiallyPaid
	default:
		return InvoiceUnpaid
	}
}

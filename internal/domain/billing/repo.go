package billing

import (
	"context"

	"github.com/google/uuid"
)

type InvoiceRepository interface {
	// Create inserts the invoice and its items.
	Create(ctx context.Context, inv *Invoice) error
	// GetByID returns the invoice with items and payments.
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// GetForUpdate locks the invoice row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Invoice, int, error)
	SetPaid(ctx context.Context, id uuid.UUID, amountPaid float64, status InvoiceStatus) error
	SetStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddPayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)
}

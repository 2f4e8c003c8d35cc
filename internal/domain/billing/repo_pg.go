package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type invoiceRepoPG struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) InvoiceRepository {
	return &invoiceRepoPG{pool: pool}
}

func (r *invoiceRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const invoiceColumns = `id, invoice_number, patient_id, appointment_id, status, total, amount_paid, notes, issued_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.PatientID, &inv.AppointmentID, &inv.Status,
		&inv.Total, &inv.AmountPaid, &inv.Notes, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

const paymentColumns = `id, invoice_id, amount, method, reference, received_by, paid_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	if err := row.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.ReceivedBy, &p.PaidAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	q := r.conn(ctx)
	err := q.QueryRow(ctx, `
		INSERT INTO invoice (id, invoice_number, patient_id, appointment_id, status, total, amount_paid, notes, issued_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		inv.ID, inv.InvoiceNumber, inv.PatientID, inv.AppointmentID, inv.Status, inv.Total, inv.AmountPaid, inv.Notes, inv.IssuedAt,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return db.Translate(err, "invoice")
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		item.ID = uuid.New()
		item.InvoiceID = inv.ID
		_, err := q.Exec(ctx, `
			INSERT INTO invoice_item (id, invoice_id, description, quantity, unit_price, amount)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.Amount)
		if err != nil {
			return db.Translate(err, "invoice item")
		}
	}
	return nil
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoice WHERE id = $1`, id))
	if err != nil {
		return nil, db.Translate(err, "invoice")
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, amount
		FROM invoice_item WHERE invoice_id = $1 ORDER BY description`, id)
	if err != nil {
		return nil, db.Translate(err, "invoice item")
	}
	defer rows.Close()
	inv.Items = []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice, &item.Amount); err != nil {
			return nil, db.Translate(err, "invoice item")
		}
		inv.Items = append(inv.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Translate(err, "invoice item")
	}

	payments, err := r.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		inv.Payments = append(inv.Payments, *p)
	}
	return inv, nil
}

func (r *invoiceRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoice WHERE id = $1 FOR UPDATE`, id))
	return inv, db.Translate(err, "invoice")
}

func (r *invoiceRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Invoice, int, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoice WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM invoice WHERE 1=1`
	var args []interface{}
	idx := 1

	for _, col := range []string{"patient_id", "appointment_id", "status"} {
		v, ok := params[col]
		if !ok || v == "" {
			continue
		}
		clause := fmt.Sprintf(` AND %s = $%d`, col, idx)
		query += clause
		countQuery += clause
		args = append(args, v)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err, "invoice")
	}

	query += fmt.Sprintf(` ORDER BY issued_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "invoice")
	}
	defer rows.Close()

	var items []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, db.Translate(err, "invoice")
		}
		items = append(items, inv)
	}
	return items, total, db.Translate(rows.Err(), "invoice")
}

func (r *invoiceRepoPG) SetPaid(ctx context.Context, id uuid.UUID, amountPaid float64, status InvoiceStatus) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoice SET amount_paid = $2, status = $3, updated_at = NOW() WHERE id = $1`,
		id, amountPaid, status)
	if err != nil {
		return db.Translate(err, "invoice")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "invoice")
	}
	return nil
}

func (r *invoiceRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE invoice SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return db.Translate(err, "invoice")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "invoice")
	}
	return nil
}

func (r *invoiceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoice WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "invoice")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "invoice")
	}
	return nil
}

func (r *invoiceRepoPG) AddPayment(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment (id, invoice_id, amount, method, reference, received_by, paid_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.InvoiceID, p.Amount, p.Method, p.Reference, p.ReceivedBy, p.PaidAt)
	return db.Translate(err, "payment")
}

func (r *invoiceRepoPG) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+paymentColumns+` FROM payment WHERE invoice_id = $1 ORDER BY paid_at`, invoiceID)
	if err != nil {
		return nil, db.Translate(err, "payment")
	}
	defer rows.Close()
	var out []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, db.Translate(err, "payment")
		}
		out = append(out, p)
	}
	return out, db.Translate(rows.Err(), "payment")
}

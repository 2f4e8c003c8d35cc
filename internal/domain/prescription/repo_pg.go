package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
)

type prescriptionRepoPG struct {
	pool *pgxpool.Pool
}

func NewPrescriptionRepo(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const prescriptionColumns = `id, patient_id, prescriber_id, appointment_id, status, notes, dispensed_at, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.PrescriberID, &p.AppointmentID, &p.Status, &p.Notes, &p.DispensedAt,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const itemColumns = `id, prescription_id, drug_id, drug_name, dosage, frequency, duration, route, quantity, instructions`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.PrescriptionID, &it.DrugID, &it.DrugName, &it.Dosage, &it.Frequency, &it.Duration,
		&it.Route, &it.Quantity, &it.Instructions)
	return it, err
}

func (r *prescriptionRepoPG) insertItems(ctx context.Context, p *Prescription) error {
	for i := range p.Items {
		it := &p.Items[i]
		it.ID = uuid.New()
		it.PrescriptionID = p.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO prescription_item (`+itemColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			it.ID, it.PrescriptionID, it.DrugID, it.DrugName, it.Dosage, it.Frequency, it.Duration,
			it.Route, it.Quantity, it.Instructions)
		if err != nil {
			return db.Translate(err, "prescription item")
		}
	}
	return nil
}

func (r *prescriptionRepoPG) loadItems(ctx context.Context, p *Prescription) error {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+itemColumns+` FROM prescription_item WHERE prescription_id = $1 ORDER BY drug_name`, p.ID)
	if err != nil {
		return db.Translate(err, "prescription item")
	}
	defer rows.Close()

	p.Items = []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return db.Translate(err, "prescription item")
		}
		p.Items = append(p.Items, it)
	}
	return db.Translate(rows.Err(), "prescription item")
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescription (id, patient_id, prescriber_id, appointment_id, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		p.ID, p.PatientID, p.PrescriberID, p.AppointmentID, p.Status, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return db.Translate(err, "prescription")
	}
	return r.insertItems(ctx, p)
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+prescriptionColumns+` FROM prescription WHERE id = $1`, id))
	if err != nil {
		return nil, db.Translate(err, "prescription")
	}
	if err := r.loadItems(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *prescriptionRepoPG) Update(ctx context.Context, p *Prescription) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE prescription SET prescriber_id=$2, appointment_id=$3, notes=$4, updated_at=NOW()
		WHERE id = $1
		RETURNING patient_id, status, dispensed_at, created_at, updated_at`,
		p.ID, p.PrescriberID, p.AppointmentID, p.Notes,
	).Scan(&p.PatientID, &p.Status, &p.DispensedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return db.Translate(err, "prescription")
	}
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescription_item WHERE prescription_id = $1`, p.ID); err != nil {
		return db.Translate(err, "prescription item")
	}
	return r.insertItems(ctx, p)
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "prescription")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "prescription")
	}
	return nil
}

func (r *prescriptionRepoPG) SetStatus(ctx context.Context, id uuid.UUID, from, to Status, at *time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription SET status=$3, dispensed_at=COALESCE($4, dispensed_at), updated_at=NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to, at)
	if err != nil {
		return db.Translate(err, "prescription")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM prescription WHERE id = $1)`, id).Scan(&exists); err != nil {
		return db.Translate(err, "prescription")
	}
	if !exists {
		return apperr.NotFound("prescription")
	}
	return apperr.Conflict("prescription is no longer %s", from)
}

func (r *prescriptionRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Prescription, int, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescription WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM prescription WHERE 1=1`
	var args []interface{}
	idx := 1

	for _, col := range []string{"patient_id", "prescriber_id", "appointment_id", "status"} {
		v, ok := params[col]
		if !ok || v == "" {
			continue
		}
		query += fmt.Sprintf(` AND %s = $%d`, col, idx)
		countQuery += fmt.Sprintf(` AND %s = $%d`, col, idx)
		args = append(args, v)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err, "prescription")
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "prescription")
	}
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			rows.Close()
			return nil, 0, db.Translate(err, "prescription")
		}
		items = append(items, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, db.Translate(err, "prescription")
	}

	for _, p := range items {
		if err := r.loadItems(ctx, p); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

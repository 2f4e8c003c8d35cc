package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const appointmentColumns = `id, patient_id, department, reason, fee, status,
	payment_amount, payment_method, payment_reference, paid_at,
	staff_id, facility_id, scheduled_at, started_at, completed_at, cancelled_at, cancel_reason,
	notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.Department, &a.Reason, &a.Fee, &a.Status,
		&a.PaymentAmount, &a.PaymentMethod, &a.PaymentReference, &a.PaidAt,
		&a.StaffID, &a.FacilityID, &a.ScheduledAt, &a.StartedAt, &a.CompletedAt, &a.CancelledAt, &a.CancelReason,
		&a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, department, reason, fee, status, staff_id, facility_id, scheduled_at, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.Department, a.Reason, a.Fee, a.Status, a.StaffID, a.FacilityID, a.ScheduledAt, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Translate(err, "appointment")
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointment WHERE id = $1`, id))
	return a, db.Translate(err, "appointment")
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	updated, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET department=$2, reason=$3, fee=$4, notes=$5, facility_id=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		a.ID, a.Department, a.Reason, a.Fee, a.Notes, a.FacilityID))
	if err != nil {
		return db.Translate(err, "appointment")
	}
	*a = *updated
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "appointment")
	}
	return nil
}

func (r *appointmentRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointment WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM appointment WHERE 1=1`
	var args []interface{}
	idx := 1

	add := func(clause string, v interface{}) {
		c := fmt.Sprintf(clause, idx)
		query += c
		countQuery += c
		args = append(args, v)
		idx++
	}
	if v := params["patient_id"]; v != "" {
		add(` AND patient_id = $%d`, v)
	}
	if v := params["staff_id"]; v != "" {
		add(` AND staff_id = $%d`, v)
	}
	if v := params["status"]; v != "" {
		add(` AND status = $%d`, v)
	}
	if v := params["from"]; v != "" {
		add(` AND scheduled_at >= $%d`, v)
	}
	if v := params["to"]; v != "" {
		add(` AND scheduled_at < $%d`, v)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err, "appointment")
	}

	query += fmt.Sprintf(` ORDER BY COALESCE(scheduled_at, created_at) DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "appointment")
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, db.Translate(err, "appointment")
		}
		items = append(items, a)
	}
	return items, total, db.Translate(rows.Err(), "appointment")
}

func (r *appointmentRepoPG) Transition(ctx context.Context, a *Appointment, from Status) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET status=$3,
			payment_amount=$4, payment_method=$5, payment_reference=$6, paid_at=$7,
			staff_id=$8, facility_id=$9, scheduled_at=$10, started_at=$11, completed_at=$12,
			cancelled_at=$13, cancel_reason=$14, notes=$15, updated_at=NOW()
		WHERE id = $1 AND status = $2
		RETURNING updated_at`,
		a.ID, from, a.Status,
		a.PaymentAmount, a.PaymentMethod, a.PaymentReference, a.PaidAt,
		a.StaffID, a.FacilityID, a.ScheduledAt, a.StartedAt, a.CompletedAt,
		a.CancelledAt, a.CancelReason, a.Notes,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Conflict("appointment is no longer %s", from)
	}
	return db.Translate(err, "appointment")
}

func (r *appointmentRepoPG) CancelUnpaidBefore(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status=$3, cancelled_at=NOW(), cancel_reason=$4, updated_at=NOW()
		WHERE status = $1 AND created_at < $2`,
		StatusPendingPayment, cutoff, StatusCancelled, reason)
	if err != nil {
		return 0, db.Translate(err, "appointment")
	}
	return tag.RowsAffected(), nil
}

package clerking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type clerkingRepoPG struct {
	pool *pgxpool.Pool
}

func NewClerkingRepo(pool *pgxpool.Pool) ClerkingRepository {
	return &clerkingRepoPG{pool: pool}
}

func (r *clerkingRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const clerkingColumns = `id, patient_id, appointment_id, clerked_by, presenting_complaint, history_of_presenting_complaint,
	past_medical_history, drug_history, allergies, family_history, social_history, examination,
	blood_pressure, pulse_rate, temperature, respiratory_rate, oxygen_saturation, weight_kg, height_cm,
	diagnosis, plan, created_at, updated_at`

func scanClerking(row pgx.Row) (*Clerking, error) {
	var c Clerking
	err := row.Scan(&c.ID, &c.PatientID, &c.AppointmentID, &c.ClerkedBy, &c.PresentingComplaint, &c.HistoryOfPresentingComplaint,
		&c.PastMedicalHistory, &c.DrugHistory, &c.Allergies, &c.FamilyHistory, &c.SocialHistory, &c.Examination,
		&c.BloodPressure, &c.PulseRate, &c.Temperature, &c.RespiratoryRate, &c.OxygenSaturation, &c.WeightKg, &c.HeightCm,
		&c.Diagnosis, &c.Plan, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.computeBMI()
	return &c, nil
}

func (r *clerkingRepoPG) Create(ctx context.Context, c *Clerking) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO clerking (id, patient_id, appointment_id, clerked_by, presenting_complaint, history_of_presenting_complaint,
			past_medical_history, drug_history, allergies, family_history, social_history, examination,
			blood_pressure, pulse_rate, temperature, respiratory_rate, oxygen_saturation, weight_kg, height_cm,
			diagnosis, plan)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING created_at, updated_at`,
		c.ID, c.PatientID, c.AppointmentID, c.ClerkedBy, c.PresentingComplaint, c.HistoryOfPresentingComplaint,
		c.PastMedicalHistory, c.DrugHistory, c.Allergies, c.FamilyHistory, c.SocialHistory, c.Examination,
		c.BloodPressure, c.PulseRate, c.Temperature, c.RespiratoryRate, c.OxygenSaturation, c.WeightKg, c.HeightCm,
		c.Diagnosis, c.Plan,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return db.Translate(err, "clerking")
}

func (r *clerkingRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clerking, error) {
	c, err := scanClerking(r.conn(ctx).QueryRow(ctx, `SELECT `+clerkingColumns+` FROM clerking WHERE id = $1`, id))
	return c, db.Translate(err, "clerking")
}

// Update rewrites the clinical content. The patient a note belongs to is fixed.
func (r *clerkingRepoPG) Update(ctx context.Context, c *Clerking) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE clerking SET appointment_id=$2, clerked_by=$3, presenting_complaint=$4, history_of_presenting_complaint=$5,
			past_medical_history=$6, drug_history=$7, allergies=$8, family_history=$9, social_history=$10, examination=$11,
			blood_pressure=$12, pulse_rate=$13, temperature=$14, respiratory_rate=$15, oxygen_saturation=$16,
			weight_kg=$17, height_cm=$18, diagnosis=$19, plan=$20, updated_at=NOW()
		WHERE id = $1
		RETURNING patient_id, created_at, updated_at`,
		c.ID, c.AppointmentID, c.ClerkedBy, c.PresentingComplaint, c.HistoryOfPresentingComplaint,
		c.PastMedicalHistory, c.DrugHistory, c.Allergies, c.FamilyHistory, c.SocialHistory, c.Examination,
		c.BloodPressure, c.PulseRate, c.Temperature, c.RespiratoryRate, c.OxygenSaturation,
		c.WeightKg, c.HeightCm, c.Diagnosis, c.Plan,
	).Scan(&c.PatientID, &c.CreatedAt, &c.UpdatedAt)
	return db.Translate(err, "clerking")
}

func (r *clerkingRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM clerking WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "clerking")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "clerking")
	}
	return nil
}

func (r *clerkingRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Clerking, int, error) {
	query := `SELECT ` + clerkingColumns + ` FROM clerking WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM clerking WHERE 1=1`
	var args []interface{}
	idx := 1

	for _, col := range []string{"patient_id", "appointment_id", "clerked_by"} {
		v, ok := params[col]
		if !ok || v == "" {
			continue
		}
		query += fmt.Sprintf(` AND %s = $%d`, col, idx)
		countQuery += fmt.Sprintf(` AND %s = $%d`, col, idx)
		args = append(args, v)
		idx++
	}
	if q, ok := params["q"]; ok && q != "" {
		clause := fmt.Sprintf(` AND (presenting_complaint ILIKE $%d OR diagnosis ILIKE $%d)`, idx, idx)
		query += clause
		countQuery += clause
		args = append(args, "%"+q+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err, "clerking")
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "clerking")
	}
	defer rows.Close()

	var items []*Clerking
	for rows.Next() {
		c, err := scanClerking(rows)
		if err != nil {
			return nil, 0, db.Translate(err, "clerking")
		}
		items = append(items, c)
	}
	return items, total, db.Translate(rows.Err(), "clerking")
}

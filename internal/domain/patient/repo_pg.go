package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const patientColumns = `id, hospital_number, first_name, last_name, other_names, gender, date_of_birth,
	phone, email, address, blood_group, genotype, allergies,
	next_of_kin_name, next_of_kin_phone, next_of_kin_relationship, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.HospitalNumber, &p.FirstName, &p.LastName, &p.OtherNames, &p.Gender, &p.DateOfBirth,
		&p.Phone, &p.Email, &p.Address, &p.BloodGroup, &p.Genotype, &p.Allergies,
		&p.NextOfKinName, &p.NextOfKinPhone, &p.NextOfKinRelationship, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, hospital_number, first_name, last_name, other_names, gender, date_of_birth,
			phone, email, address, blood_group, genotype, allergies,
			next_of_kin_name, next_of_kin_phone, next_of_kin_relationship)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at`,
		p.ID, p.HospitalNumber, p.FirstName, p.LastName, p.OtherNames, p.Gender, p.DateOfBirth,
		p.Phone, p.Email, p.Address, p.BloodGroup, p.Genotype, p.Allergies,
		p.NextOfKinName, p.NextOfKinPhone, p.NextOfKinRelationship,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Translate(err, "patient")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientColumns+` FROM patient WHERE id = $1`, id))
	return p, db.Translate(err, "patient")
}

func (r *patientRepoPG) GetByHospitalNumber(ctx context.Context, hn string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientColumns+` FROM patient WHERE hospital_number = $1`, hn))
	return p, db.Translate(err, "patient")
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET first_name=$2, last_name=$3, other_names=$4, gender=$5, date_of_birth=$6,
			phone=$7, email=$8, address=$9, blood_group=$10, genotype=$11, allergies=$12,
			next_of_kin_name=$13, next_of_kin_phone=$14, next_of_kin_relationship=$15, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.FirstName, p.LastName, p.OtherNames, p.Gender, p.DateOfBirth,
		p.Phone, p.Email, p.Address, p.BloodGroup, p.Genotype, p.Allergies,
		p.NextOfKinName, p.NextOfKinPhone, p.NextOfKinRelationship,
	).Scan(&p.UpdatedAt)
	return db.Translate(err, "patient")
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "patient")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "patient")
	}
	return nil
}

func (r *patientRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	query := `SELECT ` + patientColumns + ` FROM patient WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM patient WHERE 1=1`
	var args []interface{}
	idx := 1

	if q, ok := params["q"]; ok && q != "" {
		clause := fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR other_names ILIKE $%d OR hospital_number ILIKE $%d OR phone ILIKE $%d)`,
			idx, idx, idx, idx, idx)
		query += clause
		countQuery += clause
		args = append(args, "%"+q+"%")
		idx++
	}
	if g, ok := params["gender"]; ok && g != "" {
		query += fmt.Sprintf(` AND gender = $%d`, idx)
		countQuery += fmt.Sprintf(` AND gender = $%d`, idx)
		args = append(args, g)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err, "patient")
	}

	query += fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "patient")
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, db.Translate(err, "patient")
		}
		items = append(items, p)
	}
	return items, total, db.Translate(rows.Err(), "patient")
}

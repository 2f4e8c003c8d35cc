package staff

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type staffRepoPG struct {
	pool *pgxpool.Pool
}

func NewStaffRepo(pool *pgxpool.Pool) StaffRepository {
	return &staffRepoPG{pool: pool}
}

func (r *staffRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const staffColumns = `id, staff_number, first_name, last_name, role, department, specialty,
	phone, email, active, hired_on, created_at, updated_at`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.StaffNumber, &m.FirstName, &m.LastName, &m.Role, &m.Department, &m.Specialty,
		&m.Phone, &m.Email, &m.Active, &m.HiredOn, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *staffRepoPG) Create(ctx context.Context, m *Member) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO staff (id, staff_number, first_name, last_name, role, department, specialty, phone, email, active, hired_on)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		m.ID, m.StaffNumber, m.FirstName, m.LastName, m.Role, m.Department, m.Specialty, m.Phone, m.Email, m.Active, m.HiredOn,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	return db.Translate(err, "staff member")
}

func (r *staffRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	m, err := scanMember(r.conn(ctx).QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id))
	return m, db.Translate(err, "staff member")
}

func (r *staffRepoPG) Update(ctx context.Context, m *Member) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE staff SET first_name=$2, last_name=$3, role=$4, department=$5, specialty=$6,
			phone=$7, email=$8, active=$9, hired_on=$10, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		m.ID, m.FirstName, m.LastName, m.Role, m.Department, m.Specialty, m.Phone, m.Email, m.Active, m.HiredOn,
	).Scan(&m.UpdatedAt)
	return db.Translate(err, "staff member")
}

func (r *staffRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "staff member")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "staff member")
	}
	return nil
}

func (r *staffRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Member, int, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM staff WHERE 1=1`
	var args []interface{}
	idx := 1

	if q, ok := params["q"]; ok && q != "" {
		clause := fmt.Sprintf(` AND (first_name || ' ' || last_name ILIKE $%d OR staff_number ILIKE $%d)`, idx, idx)
		query += clause
		countQuery += clause
		args = append(args, "%"+q+"%")
		idx++
	}
	if role, ok := params["role"]; ok && role != "" {
		query += fmt.Sprintf(` AND role = $%d`, idx)
		countQuery += fmt.Sprintf(` AND role = $%d`, idx)
		args = append(args, role)
		idx++
	}
	if dept, ok := params["department"]; ok && dept != "" {
		query += fmt.Sprintf(` AND department ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND department ILIKE $%d`, idx)
		args = append(args, dept)
		idx++
	}
	if active, ok := params["active"]; ok && active != "" {
		query += fmt.Sprintf(` AND active = $%d`, idx)
		countQuery += fmt.Sprintf(` AND active = $%d`, idx)
		args = append(args, active == "true")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err, "staff member")
	}

	query += fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "staff member")
	}
	defer rows.Close()

	var items []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, db.Translate(err, "staff member")
		}
		items = append(items, m)
	}
	return items, total, db.Translate(rows.Err(), "staff member")
}

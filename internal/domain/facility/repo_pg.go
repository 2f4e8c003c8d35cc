package facility

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type facilityRepoPG struct {
	pool *pgxpool.Pool
}

func NewFacilityRepo(pool *pgxpool.Pool) FacilityRepository {
	return &facilityRepoPG{pool: pool}
}

func (r *facilityRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const facilityColumns = `id, name, type, department, floor, capacity, status, description, created_at, updated_at`

func scanFacility(row pgx.Row) (*Facility, error) {
	var f Facility
	err := row.Scan(&f.ID, &f.Name, &f.Type, &f.Department, &f.Floor, &f.Capacity, &f.Status, &f.Description,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *facilityRepoPG) Create(ctx context.Context, f *Facility) error {
	f.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO facility (id, name, type, department, floor, capacity, status, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		f.ID, f.Name, f.Type, f.Department, f.Floor, f.Capacity, f.Status, f.Description,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	return db.Translate(err, "facility")
}

func (r *facilityRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Facility, error) {
	f, err := scanFacility(r.conn(ctx).QueryRow(ctx, `SELECT `+facilityColumns+` FROM facility WHERE id = $1`, id))
	return f, db.Translate(err, "facility")
}

func (r *facilityRepoPG) Update(ctx context.Context, f *Facility) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE facility SET name=$2, type=$3, department=$4, floor=$5, capacity=$6, status=$7, description=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		f.ID, f.Name, f.Type, f.Department, f.Floor, f.Capacity, f.Status, f.Description,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	return db.Translate(err, "facility")
}

func (r *facilityRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM facility WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "facility")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "facility")
	}
	return nil
}

func (r *facilityRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Facility, int, error) {
	query := `SELECT ` + facilityColumns + ` FROM facility WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM facility WHERE 1=1`
	var args []interface{}
	idx := 1

	if q, ok := params["q"]; ok && q != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		args = append(args, "%"+q+"%")
		idx++
	}
	if t, ok := params["type"]; ok && t != "" {
		query += fmt.Sprintf(` AND type = $%d`, idx)
		countQuery += fmt.Sprintf(` AND type = $%d`, idx)
		args = append(args, t)
		idx++
	}
	if s, ok := params["status"]; ok && s != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, s)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err, "facility")
	}

	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "facility")
	}
	defer rows.Close()

	var items []*Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, 0, db.Translate(err, "facility")
		}
		items = append(items, f)
	}
	return items, total, db.Translate(rows.Err(), "facility")
}

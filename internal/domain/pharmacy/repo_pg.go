package pharmacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
)

type drugRepoPG struct {
	pool *pgxpool.Pool
}

func NewDrugRepo(pool *pgxpool.Pool) DrugRepository {
	return &drugRepoPG{pool: pool}
}

func (r *drugRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const drugColumns = `id, name, generic_name, form, strength, unit_price, stock_quantity, reorder_level, created_at, updated_at`

func scanDrug(row pgx.Row) (*Drug, error) {
	var d Drug
	err := row.Scan(&d.ID, &d.Name, &d.GenericName, &d.Form, &d.Strength, &d.UnitPrice, &d.StockQuantity, &d.ReorderLevel,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *drugRepoPG) Create(ctx context.Context, d *Drug) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO drug (id, name, generic_name, form, strength, unit_price, stock_quantity, reorder_level)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		d.ID, d.Name, d.GenericName, d.Form, d.Strength, d.UnitPrice, d.StockQuantity, d.ReorderLevel,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.Translate(err, "drug")
}

func (r *drugRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Drug, error) {
	d, err := scanDrug(r.conn(ctx).QueryRow(ctx, `SELECT `+drugColumns+` FROM drug WHERE id = $1`, id))
	return d, db.Translate(err, "drug")
}

// Update leaves stock_quantity alone; stock only moves through AdjustStock.
func (r *drugRepoPG) Update(ctx context.Context, d *Drug) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE drug SET name=$2, generic_name=$3, form=$4, strength=$5, unit_price=$6, reorder_level=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING stock_quantity, created_at, updated_at`,
		d.ID, d.Name, d.GenericName, d.Form, d.Strength, d.UnitPrice, d.ReorderLevel,
	).Scan(&d.StockQuantity, &d.CreatedAt, &d.UpdatedAt)
	return db.Translate(err, "drug")
}

func (r *drugRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM drug WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "drug")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "drug")
	}
	return nil
}

func (r *drugRepoPG) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Drug, error) {
	d, err := scanDrug(r.conn(ctx).QueryRow(ctx, `
		UPDATE drug SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity + $2 >= 0
		RETURNING `+drugColumns, id, delta))
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, db.Translate(err, "drug")
	}

	var name string
	var stock int
	err = r.conn(ctx).QueryRow(ctx, `SELECT name, stock_quantity FROM drug WHERE id = $1`, id).Scan(&name, &stock)
	if err != nil {
		return nil, db.Translate(err, "drug")
	}
	return nil, apperr.Conflict("insufficient stock for %s: %d available, %d requested", name, stock, -delta)
}

func (r *drugRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Drug, int, error) {
	query := `SELECT ` + drugColumns + ` FROM drug WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM drug WHERE 1=1`
	var args []interface{}
	idx := 1

	if q, ok := params["q"]; ok && q != "" {
		clause := fmt.Sprintf(` AND (name ILIKE $%d OR generic_name ILIKE $%d)`, idx, idx)
		query += clause
		countQuery += clause
		args = append(args, "%"+q+"%")
		idx++
	}
	if f, ok := params["form"]; ok && f != "" {
		query += fmt.Sprintf(` AND LOWER(form) = LOWER($%d)`, idx)
		countQuery += fmt.Sprintf(` AND LOWER(form) = LOWER($%d)`, idx)
		args = append(args, f)
		idx++
	}
	if params["low_stock"] == "true" {
		query += ` AND stock_quantity <= reorder_level`
		countQuery += ` AND stock_quantity <= reorder_level`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err, "drug")
	}

	order := `name`
	if params["low_stock"] == "true" {
		order = `stock_quantity - reorder_level, name`
	}
	query += fmt.Sprintf(` ORDER BY %s LIMIT $%d OFFSET $%d`, order, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "drug")
	}
	defer rows.Close()

	var items []*Drug
	for rows.Next() {
		d, err := scanDrug(rows)
		if err != nil {
			return nil, 0, db.Translate(err, "drug")
		}
		items = append(items, d)
	}
	return items, total, db.Translate(rows.Err(), "drug")
}

type dispensationRepoPG struct {
	pool *pgxpool.Pool
}

func NewDispensationRepo(pool *pgxpool.Pool) DispensationRepository {
	return &dispensationRepoPG{pool: pool}
}

func (r *dispensationRepoPG) Create(ctx context.Context, d *Dispensation) error {
	d.ID = uuid.New()
	err := db.From(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO dispensation (id, prescription_id, dispensed_by, total_amount)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		d.ID, d.PrescriptionID, d.DispensedBy, d.TotalAmount,
	).Scan(&d.CreatedAt)
	return db.Translate(err, "dispensation")
}

func (r *dispensationRepoPG) ListByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*Dispensation, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT id, prescription_id, dispensed_by, total_amount, created_at
		FROM dispensation WHERE prescription_id = $1 ORDER BY created_at`, prescriptionID)
	if err != nil {
		return nil, db.Translate(err, "dispensation")
	}
	defer rows.Close()

	var out []*Dispensation
	for rows.Next() {
		var d Dispensation
		if err := rows.Scan(&d.ID, &d.PrescriptionID, &d.DispensedBy, &d.TotalAmount, &d.CreatedAt); err != nil {
			return nil, db.Translate(err, "dispensation")
		}
		out = append(out, &d)
	}
	return out, db.Translate(rows.Err(), "dispensation")
}

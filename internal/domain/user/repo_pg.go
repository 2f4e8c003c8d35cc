package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/permission"
)

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const userColumns = `id, username, password_hash, role, display_name, staff_id, active, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.DisplayName, &u.StaffID, &u.Active, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO system_user (id, username, password_hash, role, display_name, staff_id, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		u.ID, u.Username, u.PasswordHash, u.Role, u.DisplayName, u.StaffID, u.Active,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return db.Translate(err, "user")
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM system_user WHERE id = $1`, id))
	return u, db.Translate(err, "user")
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM system_user WHERE username = $1`, username))
	return u, db.Translate(err, "user")
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE system_user SET role=$2, display_name=$3, staff_id=$4, active=$5, updated_at=NOW()
		WHERE id = $1
		RETURNING username, password_hash, last_login_at, created_at, updated_at`,
		u.ID, u.Role, u.DisplayName, u.StaffID, u.Active,
	).Scan(&u.Username, &u.PasswordHash, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return db.Translate(err, "user")
}

func (r *userRepoPG) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE system_user SET password_hash=$2, updated_at=NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return db.Translate(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "user")
	}
	return nil
}

func (r *userRepoPG) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE system_user SET last_login_at=$2 WHERE id = $1`, id, at)
	return db.Translate(err, "user")
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM system_user WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "user")
	}
	return nil
}

func (r *userRepoPG) CountActive(ctx context.Context, role permission.Role) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM system_user WHERE role = $1 AND active`, role).Scan(&n)
	return n, db.Translate(err, "user")
}

func (r *userRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*User, int, error) {
	query := `SELECT ` + userColumns + ` FROM system_user WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM system_user WHERE 1=1`
	var args []interface{}
	idx := 1

	if q, ok := params["q"]; ok && q != "" {
		clause := fmt.Sprintf(` AND (username ILIKE $%d OR display_name ILIKE $%d)`, idx, idx)
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
	if a, ok := params["active"]; ok && a != "" {
		query += fmt.Sprintf(` AND active = $%d`, idx)
		countQuery += fmt.Sprintf(` AND active = $%d`, idx)
		args = append(args, a == "true")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err, "user")
	}

	query += fmt.Sprintf(` ORDER BY username LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Translate(err, "user")
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, db.Translate(err, "user")
		}
		items = append(items, u)
	}
	return items, total, db.Translate(rows.Err(), "user")
}

package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/permission"
)

// User is a system account. Each account carries exactly one role from the
// permission matrix.
type User struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Username     string          `db:"username" json:"username"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Role         permission.Role `db:"role" json:"role"`
	DisplayName  *string         `db:"display_name" json:"display_name,omitempty"`
	StaffID      *uuid.UUID      `db:"staff_id" json:"staff_id,omitempty"`
	Active       bool            `db:"active" json:"active"`
	LastLoginAt  *time.Time      `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

func (u *User) matches(params map[string]string) bool {
	if q := strings.ToLower(params["q"]); q != "" {
		hit := strings.Contains(u.Username, q)
		if !hit && u.DisplayName != nil {
			hit = strings.Contains(strings.ToLower(*u.DisplayName), q)
		}
		if !hit {
			return false
		}
	}
	if r := params["role"]; r != "" && string(u.Role) != r {
		return false
	}
	if a := params["active"]; a != "" && (a == "true") != u.Active {
		return false
	}
	return true
}

type CreateRequest struct {
	Username    string     `json:"username" validate:"required,min=3,max=64"`
	Password    string     `json:"password" validate:"required"`
	Role        string     `json:"role" validate:"required"`
	DisplayName *string    `json:"display_name,omitempty"`
	StaffID     *uuid.UUID `json:"staff_id,omitempty"`
	Active      *bool      `json:"active,omitempty"`
}

type UpdateRequest struct {
	Role        string     `json:"role" validate:"required"`
	DisplayName *string    `json:"display_name,omitempty"`
	StaffID     *uuid.UUID `json:"staff_id,omitempty"`
	Active      *bool      `json:"active,omitempty"`
}

type PasswordReset struct {
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token       string                                       `json:"token"`
	ExpiresAt   time.Time                                    `json:"expires_at"`
	User        *User                                        `json:"user"`
	Permissions map[permission.Module][]permission.Operation `json:"permissions"`
}

// Identity describes the caller of GET /auth/me.
type Identity struct {
	ID          string                                       `json:"id"`
	Username    string                                       `json:"username"`
	Roles       []string                                     `json:"roles"`
	User        *User                                        `json:"user,omitempty"`
	Permissions map[permission.Module][]permission.Operation `json:"permissions"`
}

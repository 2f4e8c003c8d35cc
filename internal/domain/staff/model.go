package staff

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/civil"
)

var roles = []string{"doctor", "nurse", "pharmacist", "receptionist", "accountant", "lab_scientist", "administrator", "other"}

// Member is an entry in the staff directory. It is independent of system
// user accounts; a user may link to one member.
type Member struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	StaffNumber string      `db:"staff_number" json:"staff_number"`
	FirstName   string      `db:"first_name" json:"first_name" validate:"required,max=100"`
	LastName    string      `db:"last_name" json:"last_name" validate:"required,max=100"`
	Role        string      `db:"role" json:"role" validate:"required"`
	Department  *string     `db:"department" json:"department,omitempty"`
	Specialty   *string     `db:"specialty" json:"specialty,omitempty"`
	Phone       *string     `db:"phone" json:"phone,omitempty"`
	Email       *string     `db:"email" json:"email,omitempty" validate:"omitempty,email"`
	Active      bool        `db:"active" json:"active"`
	HiredOn     *civil.Date `db:"hired_on" json:"hired_on,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

func (m *Member) matches(params map[string]string) bool {
	if q := strings.ToLower(params["q"]); q != "" {
		if !strings.Contains(strings.ToLower(m.FullName()), q) && !strings.Contains(strings.ToLower(m.StaffNumber), q) {
			return false
		}
	}
	if r := params["role"]; r != "" && m.Role != r {
		return false
	}
	if d := params["department"]; d != "" && (m.Department == nil || !strings.EqualFold(*m.Department, d)) {
		return false
	}
	if a := params["active"]; a != "" && (a == "true") != m.Active {
		return false
	}
	return true
}

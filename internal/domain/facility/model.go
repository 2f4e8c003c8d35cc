package facility

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	types    = []string{"ward", "clinic", "theatre", "lab", "pharmacy", "office"}
	statuses = []string{"active", "inactive", "maintenance"}
)

type Facility struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name" validate:"required,max=150"`
	Type        string    `db:"type" json:"type" validate:"required"`
	Department  *string   `db:"department" json:"department,omitempty"`
	Floor       *string   `db:"floor" json:"floor,omitempty"`
	Capacity    int       `db:"capacity" json:"capacity" validate:"gte=0"`
	Status      string    `db:"status" json:"status"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (f *Facility) matches(params map[string]string) bool {
	if q := strings.ToLower(params["q"]); q != "" && !strings.Contains(strings.ToLower(f.Name), q) {
		return false
	}
	if t := params["type"]; t != "" && f.Type != t {
		return false
	}
	if s := params["status"]; s != "" && f.Status != s {
		return false
	}
	return true
}

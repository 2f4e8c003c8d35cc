package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/civil"
)

var genders = []string{"male", "female", "other"}

type Patient struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	HospitalNumber        string     `db:"hospital_number" json:"hospital_number"`
	FirstName             string     `db:"first_name" json:"first_name" validate:"required,max=100"`
	LastName              string     `db:"last_name" json:"last_name" validate:"required,max=100"`
	OtherNames            *string    `db:"other_names" json:"other_names,omitempty"`
	Gender                string     `db:"gender" json:"gender" validate:"required"`
	DateOfBirth           civil.Date `db:"date_of_birth" json:"date_of_birth"`
	Phone                 *string    `db:"phone" json:"phone,omitempty"`
	Email                 *string    `db:"email" json:"email,omitempty" validate:"omitempty,email"`
	Address               *string    `db:"address" json:"address,omitempty"`
	BloodGroup            *string    `db:"blood_group" json:"blood_group,omitempty"`
	Genotype              *string    `db:"genotype" json:"genotype,omitempty"`
	Allergies             *string    `db:"allergies" json:"allergies,omitempty"`
	NextOfKinName         *string    `db:"next_of_kin_name" json:"next_of_kin_name,omitempty"`
	NextOfKinPhone        *string    `db:"next_of_kin_phone" json:"next_of_kin_phone,omitempty"`
	NextOfKinRelationship *string    `db:"next_of_kin_relationship" json:"next_of_kin_relationship,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string {
	parts := []string{p.FirstName}
	if p.OtherNames != nil && *p.OtherNames != "" {
		parts = append(parts, *p.OtherNames)
	}
	parts = append(parts, p.LastName)
	return strings.Join(parts, " ")
}

// Matches reports whether q appears in the patient's names, hospital number
// or phone, ignoring case.
func (p *Patient) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	fields := []string{p.FirstName, p.LastName, p.HospitalNumber}
	if p.OtherNames != nil {
		fields = append(fields, *p.OtherNames)
	}
	if p.Phone != nil {
		fields = append(fields, *p.Phone)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

package prescription

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusDispensed Status = "dispensed"
	StatusCancelled Status = "cancelled"
)

var routes = []string{"oral", "iv", "im", "sc", "topical", "inhaled", "rectal", "sublingual", "other"}

type Prescription struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id" validate:"required"`
	PrescriberID  *uuid.UUID `db:"prescriber_id" json:"prescriber_id,omitempty"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Status        Status     `db:"status" json:"status"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	DispensedAt   *time.Time `db:"dispensed_at" json:"dispensed_at,omitempty"`
	Items         []Item     `json:"items" validate:"required,min=1,dive"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type Item struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PrescriptionID uuid.UUID  `db:"prescription_id" json:"prescription_id"`
	DrugID         *uuid.UUID `db:"drug_id" json:"drug_id,omitempty"`
	DrugName       string     `db:"drug_name" json:"drug_name" validate:"required"`
	Dosage         *string    `db:"dosage" json:"dosage,omitempty"`
	Frequency      *string    `db:"frequency" json:"frequency,omitempty"`
	Duration       *string    `db:"duration" json:"duration,omitempty"`
	Route          *string    `db:"route" json:"route,omitempty"`
	Quantity       int        `db:"quantity" json:"quantity" validate:"gt=0"`
	Instructions   *string    `db:"instructions" json:"instructions,omitempty"`
}

// CancelRequest is the body of POST /prescriptions/:id/cancel.
type CancelRequest struct {
	Reason string `json:"reason"`
}

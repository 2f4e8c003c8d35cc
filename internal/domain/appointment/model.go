package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Appointment struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id" validate:"required"`
	Department       *string    `db:"department" json:"department,omitempty"`
	Reason           *string    `db:"reason" json:"reason,omitempty"`
	Fee              float64    `db:"fee" json:"fee" validate:"gte=0"`
	Status           Status     `db:"status" json:"status"`
	PaymentAmount    *float64   `db:"payment_amount" json:"payment_amount,omitempty"`
	PaymentMethod    *string    `db:"payment_method" json:"payment_method,omitempty"`
	PaymentReference *string    `db:"payment_reference" json:"payment_reference,omitempty"`
	PaidAt           *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	StaffID          *uuid.UUID `db:"staff_id" json:"staff_id,omitempty"`
	FacilityID       *uuid.UUID `db:"facility_id" json:"facility_id,omitempty"`
	ScheduledAt      *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	StartedAt        *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt      *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason     *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	Notes            *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// ActionRequest is the body of POST /appointments/:id/action. Which fields
// are read depends on Action.
type ActionRequest struct {
	Action      Action     `json:"action" validate:"required"`
	Amount      *float64   `json:"amount,omitempty"`
	Method      string     `json:"method,omitempty"`
	Reference   *string    `json:"reference,omitempty"`
	StaffID     *uuid.UUID `json:"staff_id,omitempty"`
	FacilityID  *uuid.UUID `json:"facility_id,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	Reason      *string    `json:"reason,omitempty"`
}

func (a *Appointment) matches(params map[string]string) bool {
	if v := params["patient_id"]; v != "" && a.PatientID.String() != v {
		return false
	}
	if v := params["staff_id"]; v != "" && (a.StaffID == nil || a.StaffID.String() != v) {
		return false
	}
	if v := params["status"]; v != "" && string(a.Status) != v {
		return false
	}
	if v := params["from"]; v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err == nil && (a.ScheduledAt == nil || a.ScheduledAt.Before(from)) {
			return false
		}
	}
	if v := params["to"]; v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err == nil && (a.ScheduledAt == nil || !a.ScheduledAt.Before(to)) {
			return false
		}
	}
	return true
}

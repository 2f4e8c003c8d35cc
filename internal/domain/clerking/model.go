package clerking

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Clerking is the admission or consultation note taken when a patient is
// first seen.
type Clerking struct {
	ID                           uuid.UUID  `db:"id" json:"id"`
	PatientID                    uuid.UUID  `db:"patient_id" json:"patient_id" validate:"required"`
	AppointmentID                *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	ClerkedBy                    *uuid.UUID `db:"clerked_by" json:"clerked_by,omitempty"`
	PresentingComplaint          string     `db:"presenting_complaint" json:"presenting_complaint" validate:"required"`
	HistoryOfPresentingComplaint *string    `db:"history_of_presenting_complaint" json:"history_of_presenting_complaint,omitempty"`
	PastMedicalHistory           *string    `db:"past_medical_history" json:"past_medical_history,omitempty"`
	DrugHistory                  *string    `db:"drug_history" json:"drug_history,omitempty"`
	Allergies                    *string    `db:"allergies" json:"allergies,omitempty"`
	FamilyHistory                *string    `db:"family_history" json:"family_history,omitempty"`
	SocialHistory                *string    `db:"social_history" json:"social_history,omitempty"`
	Examination                  *string    `db:"examination" json:"examination,omitempty"`
	Vitals
	Diagnosis *string   `db:"diagnosis" json:"diagnosis,omitempty"`
	Plan      *string   `db:"plan" json:"plan,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Vitals are the observations recorded at clerking. Every field is optional.
type Vitals struct {
	BloodPressure    *string  `db:"blood_pressure" json:"blood_pressure,omitempty"`
	PulseRate        *int     `db:"pulse_rate" json:"pulse_rate,omitempty"`
	Temperature      *float64 `db:"temperature" json:"temperature,omitempty"`
	RespiratoryRate  *int     `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
	OxygenSaturation *int     `db:"oxygen_saturation" json:"oxygen_saturation,omitempty"`
	WeightKg         *float64 `db:"weight_kg" json:"weight_kg,omitempty"`
	HeightCm         *float64 `db:"height_cm" json:"height_cm,omitempty"`
	BMI              *float64 `json:"bmi,omitempty"`
}

// computeBMI fills BMI from weight and height, rounded to one decimal.
func (v *Vitals) computeBMI() {
	v.BMI = nil
	if v.WeightKg == nil || v.HeightCm == nil || *v.HeightCm <= 0 {
		return
	}
	m := *v.HeightCm / 100
	bmi := math.Round(*v.WeightKg/(m*m)*10) / 10
	v.BMI = &bmi
}

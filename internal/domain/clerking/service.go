package clerking

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
)

type Service struct {
	clerkings ClerkingRepository
}

func NewService(clerkings ClerkingRepository) *Service {
	return &Service{clerkings: clerkings}
}

var bloodPressure = regexp.MustCompile(`^(\d{2,3})\s*/\s*(\d{2,3})$`)

func intInRange(name string, v *int, lo, hi int) error {
	if v != nil && (*v < lo || *v > hi) {
		return apperr.Validation("%s must be between %d and %d", name, lo, hi)
	}
	return nil
}

func floatInRange(name string, v *float64, lo, hi float64) error {
	if v != nil && (*v < lo || *v > hi) {
		return apperr.Validation("%s must be between %g and %g", name, lo, hi)
	}
	return nil
}

// validateVitals rejects values outside what a living adult or child can
// present with. Blood pressure is normalised to "systolic/diastolic".
func validateVitals(v *Vitals) error {
	if v.BloodPressure != nil {
		m := bloodPressure.FindStringSubmatch(strings.TrimSpace(*v.BloodPressure))
		if m == nil {
			return apperr.Validation("blood_pressure must look like 120/80")
		}
		sys, _ := strconv.Atoi(m[1])
		dia, _ := strconv.Atoi(m[2])
		if sys <= dia {
			return apperr.Validation("blood_pressure systolic must be above diastolic")
		}
		bp := m[1] + "/" + m[2]
		v.BloodPressure = &bp
	}
	checks := []error{
		intInRange("pulse_rate", v.PulseRate, 20, 250),
		floatInRange("temperature", v.Temperature, 30, 45),
		intInRange("respiratory_rate", v.RespiratoryRate, 4, 80),
		intInRange("oxygen_saturation", v.OxygenSaturation, 0, 100),
		floatInRange("weight_kg", v.WeightKg, 0.3, 500),
		floatInRange("height_cm", v.HeightCm, 20, 280),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	v.computeBMI()
	return nil
}

func validateClerking(c *Clerking) error {
	if c.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	c.PresentingComplaint = strings.TrimSpace(c.PresentingComplaint)
	if c.PresentingComplaint == "" {
		return apperr.Validation("presenting_complaint is required")
	}
	return validateVitals(&c.Vitals)
}

func (s *Service) CreateClerking(ctx context.Context, c *Clerking) error {
	if err := validateClerking(c); err != nil {
		return err
	}
	return s.clerkings.Create(ctx, c)
}

func (s *Service) GetClerking(ctx context.Context, id uuid.UUID) (*Clerking, error) {
	return s.clerkings.GetByID(ctx, id)
}

func (s *Service) UpdateClerking(ctx context.Context, c *Clerking) error {
	current, err := s.clerkings.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	c.PatientID = current.PatientID
	if err := validateClerking(c); err != nil {
		return err
	}
	return s.clerkings.Update(ctx, c)
}

func (s *Service) DeleteClerking(ctx context.Context, id uuid.UUID) error {
	return s.clerkings.Delete(ctx, id)
}

func (s *Service) SearchClerkings(ctx context.Context, params map[string]string, limit, offset int) ([]*Clerking, int, error) {
	return s.clerkings.Search(ctx, params, limit, offset)
}

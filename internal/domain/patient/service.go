package patient

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/pkg/ident"
)

const (
	hospitalNumberPrefix = "HN-"
	hospitalNumberLength = 8
	createAttempts       = 3
)

type Service struct {
	patients PatientRepository
	now      func() time.Time
}

func NewService(patients PatientRepository) *Service {
	return &Service{patients: patients, now: time.Now}
}

func (s *Service) validate(p *Patient) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" {
		return apperr.Validation("first_name is required")
	}
	if p.LastName == "" {
		return apperr.Validation("last_name is required")
	}
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	if !slices.Contains(genders, p.Gender) {
		return apperr.Validation("gender must be one of: %s", strings.Join(genders, ", "))
	}
	if p.DateOfBirth.IsZero() {
		return apperr.Validation("date_of_birth is required")
	}
	if p.DateOfBirth.After(s.now()) {
		return apperr.Validation("date_of_birth cannot be in the future")
	}
	return nil
}

// CreatePatient registers a patient under a freshly generated hospital
// number, retrying when the number is already taken.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	var err error
	for i := 0; i < createAttempts; i++ {
		p.HospitalNumber = ident.Code(hospitalNumberPrefix, hospitalNumberLength)
		err = s.patients.Create(ctx, p)
		if !errors.Is(err, apperr.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByHospitalNumber(ctx context.Context, hn string) (*Patient, error) {
	return s.patients.GetByHospitalNumber(ctx, strings.ToUpper(strings.TrimSpace(hn)))
}

// UpdatePatient replaces the demographic fields. The hospital number is
// immutable.
func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	existing, err := s.patients.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := s.validate(p); err != nil {
		return err
	}
	p.HospitalNumber = existing.HospitalNumber
	p.CreatedAt = existing.CreatedAt
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) SearchPatients(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	if g := params["gender"]; g != "" {
		params["gender"] = strings.ToLower(g)
	}
	return s.patients.Search(ctx, params, limit, offset)
}

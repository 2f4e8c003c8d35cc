package facility

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
)

type Service struct {
	facilities FacilityRepository
}

func NewService(facilities FacilityRepository) *Service {
	return &Service{facilities: facilities}
}

func validateFacility(f *Facility) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return apperr.Validation("name is required")
	}
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	if !slices.Contains(types, f.Type) {
		return apperr.Validation("type must be one of: %s", strings.Join(types, ", "))
	}
	if f.Status == "" {
		f.Status = "active"
	}
	f.Status = strings.ToLower(f.Status)
	if !slices.Contains(statuses, f.Status) {
		return apperr.Validation("status must be one of: %s", strings.Join(statuses, ", "))
	}
	if f.Capacity < 0 {
		return apperr.Validation("capacity cannot be negative")
	}
	return nil
}

func (s *Service) CreateFacility(ctx context.Context, f *Facility) error {
	if err := validateFacility(f); err != nil {
		return err
	}
	return s.facilities.Create(ctx, f)
}

func (s *Service) GetFacility(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return s.facilities.GetByID(ctx, id)
}

func (s *Service) UpdateFacility(ctx context.Context, f *Facility) error {
	if err := validateFacility(f); err != nil {
		return err
	}
	return s.facilities.Update(ctx, f)
}

func (s *Service) DeleteFacility(ctx context.Context, id uuid.UUID) error {
	return s.facilities.Delete(ctx, id)
}

func (s *Service) SearchFacilities(ctx context.Context, params map[string]string, limit, offset int) ([]*Facility, int, error) {
	return s.facilities.Search(ctx, params, limit, offset)
}

package staff

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/pkg/ident"
)

const (
	staffNumberPrefix = "ST-"
	staffNumberLength = 6
	createAttempts    = 3
)

type Service struct {
	staff StaffRepository
}

func NewService(staff StaffRepository) *Service {
	return &Service{staff: staff}
}

func validateMember(m *Member) error {
	m.FirstName = strings.TrimSpace(m.FirstName)
	m.LastName = strings.TrimSpace(m.LastName)
	if m.FirstName == "" || m.LastName == "" {
		return apperr.Validation("first_name and last_name are required")
	}
	m.Role = strings.ToLower(strings.TrimSpace(m.Role))
	if !slices.Contains(roles, m.Role) {
		return apperr.Validation("role must be one of: %s", strings.Join(roles, ", "))
	}
	return nil
}

func (s *Service) CreateMember(ctx context.Context, m *Member) error {
	if err := validateMember(m); err != nil {
		return err
	}
	m.Active = true
	var err error
	for i := 0; i < createAttempts; i++ {
		m.StaffNumber = ident.Code(staffNumberPrefix, staffNumberLength)
		err = s.staff.Create(ctx, m)
		if !errors.Is(err, apperr.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Service) GetMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	return s.staff.GetByID(ctx, id)
}

func (s *Service) UpdateMember(ctx context.Context, m *Member) error {
	existing, err := s.staff.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if err := validateMember(m); err != nil {
		return err
	}
	m.StaffNumber = existing.StaffNumber
	m.CreatedAt = existing.CreatedAt
	return s.staff.Update(ctx, m)
}

func (s *Service) DeleteMember(ctx context.Context, id uuid.UUID) error {
	return s.staff.Delete(ctx, id)
}

func (s *Service) SearchMembers(ctx context.Context, params map[string]string, limit, offset int) ([]*Member, int, error) {
	return s.staff.Search(ctx, params, limit, offset)
}

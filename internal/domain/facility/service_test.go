package facility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
)

type mockFacilityRepo struct {
	facilities map[uuid.UUID]*Facility
}

func newMockFacilityRepo() *mockFacilityRepo {
	return &mockFacilityRepo{facilities: make(map[uuid.UUID]*Facility)}
}

func (m *mockFacilityRepo) Create(_ context.Context, f *Facility) error {
	f.ID = uuid.New()
	f.CreatedAt = time.Now()
	f.UpdatedAt = time.Now()
	m.facilities[f.ID] = f
	return nil
}

func (m *mockFacilityRepo) GetByID(_ context.Context, id uuid.UUID) (*Facility, error) {
	f, ok := m.facilities[id]
	if !ok {
		return nil, apperr.NotFound("facility")
	}
	return f, nil
}

func (m *mockFacilityRepo) Update(_ context.Context, f *Facility) error {
	if _, ok := m.facilities[f.ID]; !ok {
		return apperr.NotFound("facility")
	}
	m.facilities[f.ID] = f
	return nil
}

func (m *mockFacilityRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.facilities[id]; !ok {
		return apperr.NotFound("facility")
	}
	delete(m.facilities, id)
	return nil
}

func (m *mockFacilityRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Facility, int, error) {
	var out []*Facility
	for _, f := range m.facilities {
		if f.matches(params) {
			out = append(out, f)
		}
	}
	return out, len(out), nil
}

func newTestService() *Service {
	return NewService(newMockFacilityRepo())
}

func TestService_CreateFacility_DefaultsStatus(t *testing.T) {
	s := newTestService()
	f := &Facility{Name: "Ward A", Type: "Ward", Capacity: 24}
	if err := s.CreateFacility(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Status != "active" || f.Type != "ward" {
		t.Errorf("expected active ward, got %s %s", f.Status, f.Type)
	}
}

func TestService_CreateFacility_Validation(t *testing.T) {
	tests := []struct {
		name string
		f    Facility
	}{
		{"missing name", Facility{Type: "ward"}},
		{"unknown type", Facility{Name: "X", Type: "garage"}},
		{"unknown status", Facility{Name: "X", Type: "lab", Status: "closed"}},
		{"negative capacity", Facility{Name: "X", Type: "clinic", Capacity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService()
			f := tt.f
			if err := s.CreateFacility(context.Background(), &f); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_UpdateFacility(t *testing.T) {
	s := newTestService()
	f := &Facility{Name: "Theatre 1", Type: "theatre"}
	s.CreateFacility(context.Background(), f)

	upd := &Facility{ID: f.ID, Name: "Theatre 1", Type: "theatre", Status: "maintenance"}
	if err := s.UpdateFacility(context.Background(), upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s.GetFacility(context.Background(), f.ID)
	if got.Status != "maintenance" {
		t.Errorf("expected maintenance, got %s", got.Status)
	}

	missing := &Facility{ID: uuid.New(), Name: "Ghost", Type: "office"}
	if err := s.UpdateFacility(context.Background(), missing); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_SearchFacilities(t *testing.T) {
	s := newTestService()
	s.CreateFacility(context.Background(), &Facility{Name: "Ward A", Type: "ward"})
	s.CreateFacility(context.Background(), &Facility{Name: "Ward B", Type: "ward", Status: "inactive"})
	s.CreateFacility(context.Background(), &Facility{Name: "Main Lab", Type: "lab"})

	_, total, _ := s.SearchFacilities(context.Background(), map[string]string{"type": "ward"}, 20, 0)
	if total != 2 {
		t.Errorf("expected 2 wards, got %d", total)
	}
	_, total, _ = s.SearchFacilities(context.Background(), map[string]string{"type": "ward", "status": "active"}, 20, 0)
	if total != 1 {
		t.Errorf("expected 1 active ward, got %d", total)
	}
	_, total, _ = s.SearchFacilities(context.Background(), map[string]string{"q": "lab"}, 20, 0)
	if total != 1 {
		t.Errorf("expected 1 lab by name, got %d", total)
	}
}

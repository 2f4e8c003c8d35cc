package patient

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/pkg/civil"
)

// -- Mock Repository --

type mockPatientRepo struct {
	patients  map[uuid.UUID]*Patient
	conflicts int
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	if m.conflicts > 0 {
		m.conflicts--
		return apperr.Conflict("patient already exists")
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient")
	}
	return p, nil
}

func (m *mockPatientRepo) GetByHospitalNumber(_ context.Context, hn string) (*Patient, error) {
	for _, p := range m.patients {
		if p.HospitalNumber == hn {
			return p, nil
		}
	}
	return nil, apperr.NotFound("patient")
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return apperr.NotFound("patient")
	}
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return apperr.NotFound("patient")
	}
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		if g := params["gender"]; g != "" && p.Gender != g {
			continue
		}
		if !p.Matches(params["q"]) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func newTestService() *Service {
	s := NewService(newMockPatientRepo())
	s.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func mustDate(s string) civil.Date {
	d, err := civil.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func validPatient() *Patient {
	return &Patient{FirstName: "Ada", LastName: "Obi", Gender: "Female", DateOfBirth: mustDate("1990-04-12")}
}

// -- Tests --

func TestService_CreatePatient(t *testing.T) {
	s := newTestService()
	p := validPatient()
	if err := s.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if !regexp.MustCompile(`^HN-[0-9A-F]{8}$`).MatchString(p.HospitalNumber) {
		t.Errorf("unexpected hospital number %q", p.HospitalNumber)
	}
	if p.Gender != "female" {
		t.Errorf("expected gender normalised to female, got %q", p.Gender)
	}
}

func TestService_CreatePatient_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Patient)
		msg    string
	}{
		{"missing first name", func(p *Patient) { p.FirstName = "  " }, "first_name is required"},
		{"missing last name", func(p *Patient) { p.LastName = "" }, "last_name is required"},
		{"bad gender", func(p *Patient) { p.Gender = "unknown" }, "gender must be one of"},
		{"missing dob", func(p *Patient) { p.DateOfBirth = civil.Date{} }, "date_of_birth is required"},
		{"future dob", func(p *Patient) { p.DateOfBirth = mustDate("2024-06-02") }, "cannot be in the future"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService()
			p := validPatient()
			tt.mutate(p)
			err := s.CreatePatient(context.Background(), p)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("expected %q in %q", tt.msg, err.Error())
			}
		})
	}
}

func TestService_CreatePatient_RetriesOnConflict(t *testing.T) {
	repo := newMockPatientRepo()
	repo.conflicts = 2
	s := NewService(repo)
	if err := s.CreatePatient(context.Background(), validPatient()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}

	repo.conflicts = createAttempts
	err := s.CreatePatient(context.Background(), validPatient())
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict after exhausting attempts, got %v", err)
	}
}

func TestService_UpdatePatient_KeepsHospitalNumber(t *testing.T) {
	s := newTestService()
	p := validPatient()
	s.CreatePatient(context.Background(), p)
	hn := p.HospitalNumber

	upd := validPatient()
	upd.ID = p.ID
	upd.HospitalNumber = "HN-HACKED00"
	upd.FirstName = "Adaeze"
	if err := s.UpdatePatient(context.Background(), upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upd.HospitalNumber != hn {
		t.Errorf("hospital number changed from %s to %s", hn, upd.HospitalNumber)
	}

	got, _ := s.GetPatient(context.Background(), p.ID)
	if got.FirstName != "Adaeze" {
		t.Errorf("expected updated first name, got %s", got.FirstName)
	}
}

func TestService_UpdatePatient_NotFound(t *testing.T) {
	s := newTestService()
	p := validPatient()
	p.ID = uuid.New()
	if err := s.UpdatePatient(context.Background(), p); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_GetPatientByHospitalNumber(t *testing.T) {
	s := newTestService()
	p := validPatient()
	s.CreatePatient(context.Background(), p)

	got, err := s.GetPatientByHospitalNumber(context.Background(), " "+strings.ToLower(p.HospitalNumber))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != p.ID {
		t.Error("expected lookup to be case-insensitive")
	}
}

func TestService_SearchPatients(t *testing.T) {
	s := newTestService()
	s.CreatePatient(context.Background(), validPatient())
	male := validPatient()
	male.FirstName, male.Gender = "Tunde", "male"
	s.CreatePatient(context.Background(), male)

	items, total, err := s.SearchPatients(context.Background(), map[string]string{"gender": "MALE"}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].FirstName != "Tunde" {
		t.Errorf("expected only Tunde, got %d results", total)
	}

	_, total, _ = s.SearchPatients(context.Background(), map[string]string{"q": "obi"}, 20, 0)
	if total != 2 {
		t.Errorf("expected 2 matches for surname, got %d", total)
	}
}

func TestService_DeletePatient(t *testing.T) {
	s := newTestService()
	p := validPatient()
	s.CreatePatient(context.Background(), p)
	if err := s.DeletePatient(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.GetPatient(context.Background(), p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestPatient_FullName(t *testing.T) {
	other := "Chioma"
	p := Patient{FirstName: "Ada", LastName: "Obi", OtherNames: &other}
	if p.FullName() != "Ada Chioma Obi" {
		t.Errorf("unexpected full name %q", p.FullName())
	}
}

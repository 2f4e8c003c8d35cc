package prescription

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
)

// -- Mock Repository --

type mockPrescriptionRepo struct {
	store map[uuid.UUID]*Prescription
}

func newMockPrescriptionRepo() *mockPrescriptionRepo {
	return &mockPrescriptionRepo{store: make(map[uuid.UUID]*Prescription)}
}

func (m *mockPrescriptionRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	for i := range p.Items {
		p.Items[i].ID = uuid.New()
		p.Items[i].PrescriptionID = p.ID
	}
	stored := *p
	m.store[p.ID] = &stored
	return nil
}

func (m *mockPrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, apperr.NotFound("prescription")
	}
	out := *p
	out.Items = append([]Item(nil), p.Items...)
	return &out, nil
}

func (m *mockPrescriptionRepo) Update(_ context.Context, p *Prescription) error {
	cur, ok := m.store[p.ID]
	if !ok {
		return apperr.NotFound("prescription")
	}
	p.PatientID = cur.PatientID
	p.Status = cur.Status
	p.DispensedAt = cur.DispensedAt
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now()
	stored := *p
	m.store[p.ID] = &stored
	return nil
}

func (m *mockPrescriptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return apperr.NotFound("prescription")
	}
	delete(m.store, id)
	return nil
}

func (m *mockPrescriptionRepo) Search(_ context.Context, params map[string]string, _, _ int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.store {
		if v := params["patient_id"]; v != "" && p.PatientID.String() != v {
			continue
		}
		if v := params["status"]; v != "" && string(p.Status) != v {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockPrescriptionRepo) SetStatus(_ context.Context, id uuid.UUID, from, to Status, at *time.Time) error {
	p, ok := m.store[id]
	if !ok {
		return apperr.NotFound("prescription")
	}
	if p.Status != from {
		return apperr.Conflict("prescription is no longer %s", from)
	}
	p.Status = to
	if at != nil {
		p.DispensedAt = at
	}
	return nil
}

func newTestService() (*Service, *mockPrescriptionRepo) {
	repo := newMockPrescriptionRepo()
	return NewService(repo, db.NoTx{}), repo
}

func strPtr(s string) *string { return &s }

func newPrescription(t *testing.T, s *Service) *Prescription {
	t.Helper()
	p := &Prescription{
		PatientID: uuid.New(),
		Items: []Item{
			{DrugName: "Amoxicillin 500mg", Dosage: strPtr("500mg"), Frequency: strPtr("tds"), Route: strPtr("Oral"), Quantity: 15},
		},
	}
	if err := s.CreatePrescription(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	return p
}

// -- Tests --

func TestCreatePrescription(t *testing.T) {
	s, _ := newTestService()
	p := newPrescription(t, s)

	if p.Status != StatusActive {
		t.Errorf("expected active, got %s", p.Status)
	}
	if *p.Items[0].Route != "oral" {
		t.Errorf("expected route to be normalised, got %q", *p.Items[0].Route)
	}
}

func TestCreatePrescription_IgnoresClientStatus(t *testing.T) {
	s, _ := newTestService()
	p := &Prescription{PatientID: uuid.New(), Status: StatusDispensed, Items: []Item{{DrugName: "Paracetamol", Quantity: 10}}}
	if err := s.CreatePrescription(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != StatusActive {
		t.Errorf("expected active, got %s", p.Status)
	}
}

func TestCreatePrescription_Validation(t *testing.T) {
	s, _ := newTestService()
	cases := []struct {
		name string
		p    *Prescription
		want string
	}{
		{"no patient", &Prescription{Items: []Item{{DrugName: "x", Quantity: 1}}}, "patient_id"},
		{"no items", &Prescription{PatientID: uuid.New()}, "at least one item"},
		{"no drug name", &Prescription{PatientID: uuid.New(), Items: []Item{{DrugName: " ", Quantity: 1}}}, "drug_name"},
		{"zero quantity", &Prescription{PatientID: uuid.New(), Items: []Item{{DrugName: "x"}}}, "quantity"},
		{"bad route", &Prescription{PatientID: uuid.New(), Items: []Item{{DrugName: "x", Quantity: 1, Route: strPtr("nasal spray")}}}, "route"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.CreatePrescription(context.Background(), tc.p)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestUpdatePrescription(t *testing.T) {
	s, _ := newTestService()
	p := newPrescription(t, s)

	upd := &Prescription{ID: p.ID, Notes: strPtr("switch to capsules"), Items: []Item{{DrugName: "Amoxicillin caps", Quantity: 21}}}
	if err := s.UpdatePrescription(context.Background(), upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s.GetPrescription(context.Background(), p.ID)
	if len(got.Items) != 1 || got.Items[0].Quantity != 21 || got.Status != StatusActive {
		t.Errorf("unexpected prescription after update: %+v", got)
	}
}

func TestUpdatePrescription_NotActive(t *testing.T) {
	s, _ := newTestService()
	p := newPrescription(t, s)
	if _, err := s.CancelPrescription(context.Background(), p.ID, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	err := s.UpdatePrescription(context.Background(), &Prescription{ID: p.ID, Items: []Item{{DrugName: "x", Quantity: 1}}})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCancelPrescription(t *testing.T) {
	s, _ := newTestService()
	p := newPrescription(t, s)

	got, err := s.CancelPrescription(context.Background(), p.ID, "allergic reaction")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if got.Notes == nil || !strings.Contains(*got.Notes, "allergic reaction") {
		t.Errorf("expected reason in notes, got %v", got.Notes)
	}

	if _, err := s.CancelPrescription(context.Background(), p.ID, ""); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict on second cancel, got %v", err)
	}
}

func TestDeletePrescription(t *testing.T) {
	s, repo := newTestService()
	p := newPrescription(t, s)
	dispensed := newPrescription(t, s)
	repo.store[dispensed.ID].Status = StatusDispensed

	if err := s.DeletePrescription(context.Background(), dispensed.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict for dispensed prescription, got %v", err)
	}
	if err := s.DeletePrescription(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.GetPrescription(context.Background(), p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestSearchPrescriptions_ByPatient(t *testing.T) {
	s, _ := newTestService()
	p := newPrescription(t, s)
	newPrescription(t, s)

	items, total, err := s.SearchPrescriptions(context.Background(), map[string]string{"patient_id": p.PatientID.String()}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].ID != p.ID {
		t.Errorf("expected the single prescription for the patient, got %d", total)
	}
}

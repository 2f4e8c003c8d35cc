package patient

import (
	"context"
	"io/fs"
	"sort"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/seed"
	"github.com/hms/hms/pkg/pagination"
)

const module = "patients"

// SeedRepo answers patient reads from the embedded fixtures.
type SeedRepo struct {
	table *seed.Table[Patient]
}

func NewSeedRepo(fsys fs.FS) (*SeedRepo, error) {
	t, err := seed.LoadTable[Patient](fsys, seed.Patients)
	if err != nil {
		return nil, err
	}
	return &SeedRepo{table: t}, nil
}

func (s *SeedRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := s.table.Find(func(p Patient) bool { return p.ID == id })
	if !ok {
		return nil, apperr.NotFound("patient")
	}
	return &p, nil
}

func (s *SeedRepo) GetByHospitalNumber(_ context.Context, hn string) (*Patient, error) {
	p, ok := s.table.Find(func(p Patient) bool { return p.HospitalNumber == hn })
	if !ok {
		return nil, apperr.NotFound("patient")
	}
	return &p, nil
}

func (s *SeedRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	rows := s.table.Filter(func(p Patient) bool {
		if g := params["gender"]; g != "" && p.Gender != g {
			return false
		}
		return p.Matches(params["q"])
	})
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LastName != rows[j].LastName {
			return rows[i].LastName < rows[j].LastName
		}
		return rows[i].FirstName < rows[j].FirstName
	})
	page, total := pagination.Slice(rows, limit, offset)
	items := make([]*Patient, len(page))
	for i := range page {
		items[i] = &page[i]
	}
	return items, total, nil
}

type searchResult struct {
	items []*Patient
	total int
}

type fallbackRepo struct {
	primary PatientRepository
	seed    *SeedRepo
	guard   *db.Guard
}

// NewFallbackRepo serves reads from seed while the database is unavailable.
// Writes are never sent to seed.
func NewFallbackRepo(primary PatientRepository, seedRepo *SeedRepo, guard *db.Guard) PatientRepository {
	if seedRepo == nil {
		seedRepo = &SeedRepo{}
	}
	return &fallbackRepo{primary: primary, seed: seedRepo, guard: guard}
}

func (r *fallbackRepo) Create(ctx context.Context, p *Patient) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Create(ctx, p) })
}

func (r *fallbackRepo) Update(ctx context.Context, p *Patient) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Update(ctx, p) })
}

func (r *fallbackRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Delete(ctx, id) })
}

func (r *fallbackRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return db.Read(ctx, r.guard, module,
		func(ctx context.Context) (*Patient, error) { return r.primary.GetByID(ctx, id) },
		func() (*Patient, error) { return r.seed.GetByID(ctx, id) })
}

func (r *fallbackRepo) GetByHospitalNumber(ctx context.Context, hn string) (*Patient, error) {
	return db.Read(ctx, r.guard, module,
		func(ctx context.Context) (*Patient, error) { return r.primary.GetByHospitalNumber(ctx, hn) },
		func() (*Patient, error) { return r.seed.GetByHospitalNumber(ctx, hn) })
}

func (r *fallbackRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	res, err := db.Read(ctx, r.guard, module,
		func(ctx context.Context) (searchResult, error) {
			items, total, err := r.primary.Search(ctx, params, limit, offset)
			return searchResult{items, total}, err
		},
		func() (searchResult, error) {
			items, total, err := r.seed.Search(ctx, params, limit, offset)
			return searchResult{items, total}, err
		})
	return res.items, res.total, err
}

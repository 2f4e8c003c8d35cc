package facility

import (
	"context"
	"io/fs"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/seed"
	"github.com/hms/hms/pkg/pagination"
)

const module = "facilities"

type SeedRepo struct {
	table *seed.Table[Facility]
}

func NewSeedRepo(fsys fs.FS) (*SeedRepo, error) {
	t, err := seed.LoadTable[Facility](fsys, seed.Facilities)
	if err != nil {
		return nil, err
	}
	return &SeedRepo{table: t}, nil
}

func (s *SeedRepo) GetByID(_ context.Context, id uuid.UUID) (*Facility, error) {
	f, ok := s.table.Find(func(f Facility) bool { return f.ID == id })
	if !ok {
		return nil, apperr.NotFound("facility")
	}
	return &f, nil
}

func (s *SeedRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Facility, int, error) {
	rows := s.table.Filter(func(f Facility) bool { return f.matches(params) })
	page, total := pagination.Slice(rows, limit, offset)
	items := make([]*Facility, len(page))
	for i := range page {
		items[i] = &page[i]
	}
	return items, total, nil
}

type searchResult struct {
	items []*Facility
	total int
}

type fallbackRepo struct {
	primary FacilityRepository
	seed    *SeedRepo
	guard   *db.Guard
}

func NewFallbackRepo(primary FacilityRepository, seedRepo *SeedRepo, guard *db.Guard) FacilityRepository {
	if seedRepo == nil {
		seedRepo = &SeedRepo{}
	}
	return &fallbackRepo{primary: primary, seed: seedRepo, guard: guard}
}

func (r *fallbackRepo) Create(ctx context.Context, f *Facility) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Create(ctx, f) })
}

func (r *fallbackRepo) Update(ctx context.Context, f *Facility) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Update(ctx, f) })
}

func (r *fallbackRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Delete(ctx, id) })
}

func (r *fallbackRepo) GetByID(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return db.Read(ctx, r.guard, module,
		func(ctx context.Context) (*Facility, error) { return r.primary.GetByID(ctx, id) },
		func() (*Facility, error) { return r.seed.GetByID(ctx, id) })
}

func (r *fallbackRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Facility, int, error) {
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

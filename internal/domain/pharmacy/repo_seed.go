package pharmacy

import (
	"context"
	"io/fs"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/seed"
	"github.com/hms/hms/pkg/pagination"
)

const module = "pharmacy"

type SeedRepo struct {
	table *seed.Table[Drug]
}

func NewSeedRepo(fsys fs.FS) (*SeedRepo, error) {
	t, err := seed.LoadTable[Drug](fsys, seed.Drugs)
	if err != nil {
		return nil, err
	}
	return &SeedRepo{table: t}, nil
}

func (s *SeedRepo) GetByID(_ context.Context, id uuid.UUID) (*Drug, error) {
	d, ok := s.table.Find(func(d Drug) bool { return d.ID == id })
	if !ok {
		return nil, apperr.NotFound("drug")
	}
	return &d, nil
}

func (s *SeedRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Drug, int, error) {
	rows := s.table.Filter(func(d Drug) bool { return d.matches(params) })
	page, total := pagination.Slice(rows, limit, offset)
	items := make([]*Drug, len(page))
	for i := range page {
		items[i] = &page[i]
	}
	return items, total, nil
}

type searchResult struct {
	items []*Drug
	total int
}

type fallbackRepo struct {
	primary DrugRepository
	seed    *SeedRepo
	guard   *db.Guard
}

func NewFallbackRepo(primary DrugRepository, seedRepo *SeedRepo, guard *db.Guard) DrugRepository {
	if seedRepo == nil {
		seedRepo = &SeedRepo{}
	}
	return &fallbackRepo{primary: primary, seed: seedRepo, guard: guard}
}

func (r *fallbackRepo) Create(ctx context.Context, d *Drug) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Create(ctx, d) })
}

func (r *fallbackRepo) Update(ctx context.Context, d *Drug) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Update(ctx, d) })
}

func (r *fallbackRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Delete(ctx, id) })
}

func (r *fallbackRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Drug, error) {
	var out *Drug
	err := r.guard.Write(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.primary.AdjustStock(ctx, id, delta)
		return err
	})
	return out, err
}

func (r *fallbackRepo) GetByID(ctx context.Context, id uuid.UUID) (*Drug, error) {
	return db.Read(ctx, r.guard, module,
		func(ctx context.Context) (*Drug, error) { return r.primary.GetByID(ctx, id) },
		func() (*Drug, error) { return r.seed.GetByID(ctx, id) })
}

func (r *fallbackRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Drug, int, error) {
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

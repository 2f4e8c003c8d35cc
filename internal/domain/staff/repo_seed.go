package staff

import (
	"context"
	"io/fs"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/seed"
	"github.com/hms/hms/pkg/pagination"
)

const module = "staff"

type SeedRepo struct {
	table *seed.Table[Member]
}

func NewSeedRepo(fsys fs.FS) (*SeedRepo, error) {
	t, err := seed.LoadTable[Member](fsys, seed.Staff)
	if err != nil {
		return nil, err
	}
	return &SeedRepo{table: t}, nil
}

func (s *SeedRepo) GetByID(_ context.Context, id uuid.UUID) (*Member, error) {
	m, ok := s.table.Find(func(m Member) bool { return m.ID == id })
	if !ok {
		return nil, apperr.NotFound("staff member")
	}
	return &m, nil
}

func (s *SeedRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Member, int, error) {
	rows := s.table.Filter(func(m Member) bool { return m.matches(params) })
	page, total := pagination.Slice(rows, limit, offset)
	items := make([]*Member, len(page))
	for i := range page {
		items[i] = &page[i]
	}
	return items, total, nil
}

type searchResult struct {
	items []*Member
	total int
}

type fallbackRepo struct {
	primary StaffRepository
	seed    *SeedRepo
	guard   *db.Guard
}

func NewFallbackRepo(primary StaffRepository, seedRepo *SeedRepo, guard *db.Guard) StaffRepository {
	if seedRepo == nil {
		seedRepo = &SeedRepo{}
	}
	return &fallbackRepo{primary: primary, seed: seedRepo, guard: guard}
}

func (r *fallbackRepo) Create(ctx context.Context, m *Member) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Create(ctx, m) })
}

func (r *fallbackRepo) Update(ctx context.Context, m *Member) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Update(ctx, m) })
}

func (r *fallbackRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Delete(ctx, id) })
}

func (r *fallbackRepo) GetByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	return db.Read(ctx, r.guard, module,
		func(ctx context.Context) (*Member, error) { return r.primary.GetByID(ctx, id) },
		func() (*Member, error) { return r.seed.GetByID(ctx, id) })
}

func (r *fallbackRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Member, int, error) {
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

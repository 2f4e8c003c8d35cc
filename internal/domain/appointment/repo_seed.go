package appointment

import (
	"context"
	"io/fs"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/seed"
	"github.com/hms/hms/pkg/pagination"
)

const module = "appointments"

type SeedRepo struct {
	table *seed.Table[Appointment]
}

func NewSeedRepo(fsys fs.FS) (*SeedRepo, error) {
	t, err := seed.LoadTable[Appointment](fsys, seed.Appointments)
	if err != nil {
		return nil, err
	}
	return &SeedRepo{table: t}, nil
}

func (s *SeedRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := s.table.Find(func(a Appointment) bool { return a.ID == id })
	if !ok {
		return nil, apperr.NotFound("appointment")
	}
	return &a, nil
}

func (s *SeedRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	rows := s.table.Filter(func(a Appointment) bool { return a.matches(params) })
	sort.SliceStable(rows, func(i, j int) bool { return sortKey(&rows[i]).After(sortKey(&rows[j])) })
	page, total := pagination.Slice(rows, limit, offset)
	items := make([]*Appointment, len(page))
	for i := range page {
		items[i] = &page[i]
	}
	return items, total, nil
}

func sortKey(a *Appointment) time.Time {
	if a.ScheduledAt != nil {
		return *a.ScheduledAt
	}
	return a.CreatedAt
}

type searchResult struct {
	items []*Appointment
	total int
}

type fallbackRepo struct {
	primary AppointmentRepository
	seed    *SeedRepo
	guard   *db.Guard
}

func NewFallbackRepo(primary AppointmentRepository, seedRepo *SeedRepo, guard *db.Guard) AppointmentRepository {
	if seedRepo == nil {
		seedRepo = &SeedRepo{}
	}
	return &fallbackRepo{primary: primary, seed: seedRepo, guard: guard}
}

func (r *fallbackRepo) Create(ctx context.Context, a *Appointment) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Create(ctx, a) })
}

func (r *fallbackRepo) Update(ctx context.Context, a *Appointment) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Update(ctx, a) })
}

func (r *fallbackRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Delete(ctx, id) })
}

func (r *fallbackRepo) Transition(ctx context.Context, a *Appointment, from Status) error {
	return r.guard.Write(ctx, func(ctx context.Context) error { return r.primary.Transition(ctx, a, from) })
}

func (r *fallbackRepo) CancelUnpaidBefore(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	var n int64
	err := r.guard.Write(ctx, func(ctx context.Context) error {
		var err error
		n, err = r.primary.CancelUnpaidBefore(ctx, cutoff, reason)
		return err
	})
	return n, err
}

func (r *fallbackRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return db.Read(ctx, r.guard, module,
		func(ctx context.Context) (*Appointment, error) { return r.primary.GetByID(ctx, id) },
		func() (*Appointment, error) { return r.seed.GetByID(ctx, id) })
}

func (r *fallbackRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
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

package db

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/metrics"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Guard tracks whether the database is reachable and decides when reads are
// served from seed data instead. A nil *Guard always goes to the database.
type Guard struct {
	pinger   Pinger
	fallback bool
	logger   zerolog.Logger
	up       atomic.Bool
	timeout  time.Duration
}

// NewGuard returns a Guard that starts in the available state.
func NewGuard(p Pinger, fallback bool, logger zerolog.Logger) *Guard {
	g := &Guard{pinger: p, fallback: fallback, logger: logger, timeout: 2 * time.Second}
	g.up.Store(true)
	metrics.DBAvailable.Set(1)
	return g
}

// Available reports the last known database state.
func (g *Guard) Available() bool {
	if g == nil {
		return true
	}
	return g.up.Load()
}

// FallbackEnabled reports whether seed reads are allowed.
func (g *Guard) FallbackEnabled() bool {
	return g != nil && g.fallback
}

// MarkDown records that the database is unreachable.
func (g *Guard) MarkDown(err error) {
	if g == nil {
		return
	}
	if g.up.Swap(false) {
		g.logger.Warn().Err(err).Msg("database marked unavailable")
	}
	metrics.DBAvailable.Set(0)
}

// MarkUp records that the database is reachable again.
func (g *Guard) MarkUp() {
	if g == nil {
		return
	}
	if !g.up.Swap(true) {
		g.logger.Info().Msg("database available again")
	}
	metrics.DBAvailable.Set(1)
}

// Probe pings the database and updates the availability state.
func (g *Guard) Probe(ctx context.Context) error {
	if g == nil || g.pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.pinger.Ping(ctx); err != nil {
		g.MarkDown(err)
		return err
	}
	g.MarkUp()
	return nil
}

// Write runs fn unless the database is known to be down. Connection failures
// observed by fn flip the guard to unavailable.
func (g *Guard) Write(ctx context.Context, fn func(ctx context.Context) error) error {
	if !g.Available() {
		return apperr.ErrUnavailable
	}
	err := fn(ctx)
	if IsUnavailable(err) {
		g.MarkDown(err)
		return wrapUnavailable(err)
	}
	return err
}

type sourceKey struct{}

// SourceMarker records, per request, whether any response data came from seed.
type SourceMarker struct {
	seed atomic.Bool
}

// Seed reports whether a seed fallback happened.
func (m *SourceMarker) Seed() bool { return m != nil && m.seed.Load() }

// WithSourceMarker attaches a fresh marker to ctx.
func WithSourceMarker(ctx context.Context) (context.Context, *SourceMarker) {
	m := &SourceMarker{}
	return context.WithValue(ctx, sourceKey{}, m), m
}

func markSeed(ctx context.Context) {
	if m, ok := ctx.Value(sourceKey{}).(*SourceMarker); ok {
		m.seed.Store(true)
	}
}

// Read runs primary against the database. When the database is down (known
// beforehand or discovered by primary) and fallback is enabled, the result of
// seed is returned instead. module labels logs and metrics.
func Read[T any](ctx context.Context, g *Guard, module string, primary func(ctx context.Context) (T, error), seed func() (T, error)) (T, error) {
	if g == nil {
		return primary(ctx)
	}
	if g.Available() {
		v, err := primary(ctx)
		if err == nil || !IsUnavailable(err) {
			return v, err
		}
		g.MarkDown(err)
		if !g.fallback || seed == nil {
			var zero T
			return zero, wrapUnavailable(err)
		}
	} else if !g.fallback || seed == nil {
		var zero T
		return zero, apperr.ErrUnavailable
	}

	metrics.SeedFallbacks.WithLabelValues(module).Inc()
	g.logger.Warn().Str("module", module).Msg("serving seed data")
	markSeed(ctx)
	return seed()
}

package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvery_RunsJob(t *testing.T) {
	s := New(zerolog.Nop())
	var runs atomic.Int32
	require.NoError(t, s.Every("tick", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	assert.Equal(t, 1, s.Len())

	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestEvery_RejectsNonPositive(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.Every("bad", 0, func(context.Context) error { return nil }))
}

func TestSchedule_BadSpec(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.Schedule("bad", "not a spec", func(context.Context) error { return nil }))
}

func TestRun_ErrorsAndPanicsDoNotEscape(t *testing.T) {
	s := New(zerolog.Nop())
	s.run("failing", func(context.Context) error { return errors.New("boom") })

	var ran atomic.Bool
	require.NoError(t, s.Every("panicky", time.Second, func(context.Context) error {
		ran.Store(true)
		panic("boom")
	}))
	s.Start()
	defer s.Stop(context.Background())
	assert.Eventually(t, ran.Load, 3*time.Second, 50*time.Millisecond)
}

func TestStop_CancelsJobContext(t *testing.T) {
	s := New(zerolog.Nop())
	s.Stop(context.Background())

	var ctxErr error
	s.run("after-stop", func(ctx context.Context) error {
		ctxErr = ctx.Err()
		return nil
	})
	assert.ErrorIs(t, ctxErr, context.Canceled)
}

package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/hms/internal/platform/apperr"
)

var errRefused = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

func TestIsUnavailable(t *testing.T) {
	assert.False(t, IsUnavailable(nil))
	assert.False(t, IsUnavailable(errors.New("syntax error")))
	assert.False(t, IsUnavailable(pgx.ErrNoRows))
	assert.False(t, IsUnavailable(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUnavailable(errRefused))
	assert.True(t, IsUnavailable(fmt.Errorf("query: %w", errRefused)))
	assert.True(t, IsUnavailable(apperr.ErrUnavailable))
	assert.False(t, IsUnavailable(context.DeadlineExceeded))
	assert.False(t, IsUnavailable(fmt.Errorf("query patients: %w", context.DeadlineExceeded)))
	assert.False(t, IsUnavailable(context.Canceled))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil, "patient"))

	err := Translate(pgx.ErrNoRows, "patient")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "patient not found", err.Error())

	err = Translate(&pgconn.PgError{Code: codeUniqueViolation}, "user")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	err = Translate(&pgconn.PgError{Code: codeForeignKeyViolation}, "clerking")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = Translate(errRefused, "drug")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestRead_PrimaryOK(t *testing.T) {
	g := NewGuard(nil, true, zerolog.Nop())
	ctx, marker := WithSourceMarker(context.Background())

	v, err := Read(ctx, g, "patients", func(context.Context) (string, error) {
		return "db", nil
	}, func() (string, error) { return "seed", nil })

	require.NoError(t, err)
	assert.Equal(t, "db", v)
	assert.False(t, marker.Seed())
}

func TestRead_FallsBackOnConnectionError(t *testing.T) {
	g := NewGuard(nil, true, zerolog.Nop())
	ctx, marker := WithSourceMarker(context.Background())

	v, err := Read(ctx, g, "patients", func(context.Context) (string, error) {
		return "", errRefused
	}, func() (string, error) { return "seed", nil })

	require.NoError(t, err)
	assert.Equal(t, "seed", v)
	assert.True(t, marker.Seed())
	assert.False(t, g.Available())
}

func TestRead_SkipsPrimaryWhenDown(t *testing.T) {
	g := NewGuard(nil, true, zerolog.Nop())
	g.MarkDown(errRefused)

	called := false
	v, err := Read(context.Background(), g, "staff", func(context.Context) (int, error) {
		called = true
		return 1, nil
	}, func() (int, error) { return 2, nil })

	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.False(t, called, "primary must not be tried while the database is known down")
}

func TestRead_QueryErrorsAreNotMasked(t *testing.T) {
	g := NewGuard(nil, true, zerolog.Nop())
	_, err := Read(context.Background(), g, "patients", func(context.Context) (int, error) {
		return 0, apperr.NotFound("patient")
	}, func() (int, error) { return 1, nil })

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.True(t, g.Available())
}

func TestRead_FallbackDisabled(t *testing.T) {
	g := NewGuard(nil, false, zerolog.Nop())
	_, err := Read(context.Background(), g, "patients", func(context.Context) (int, error) {
		return 0, errRefused
	}, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, apperr.ErrUnavailable)

	_, err = Read(context.Background(), g, "patients", func(context.Context) (int, error) {
		return 0, nil
	}, nil)
	assert.ErrorIs(t, err, apperr.ErrUnavailable, "still down until a probe succeeds")
}

func TestRead_NilGuard(t *testing.T) {
	v, err := Read(context.Background(), nil, "patients", func(context.Context) (int, error) {
		return 7, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestGuard_Write(t *testing.T) {
	g := NewGuard(nil, true, zerolog.Nop())

	err := g.Write(context.Background(), func(context.Context) error { return errRefused })
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.False(t, g.Available())

	called := false
	err = g.Write(context.Background(), func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.False(t, called)
}

func TestGuard_WriteDeadlineKeepsDatabaseUp(t *testing.T) {
	g := NewGuard(nil, true, zerolog.Nop())

	err := g.Write(context.Background(), func(context.Context) error {
		return fmt.Errorf("update appointment: %w", context.DeadlineExceeded)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, apperr.ErrUnavailable)
	assert.True(t, g.Available())
}

func TestRead_DeadlineIsNotMaskedBySeed(t *testing.T) {
	g := NewGuard(nil, true, zerolog.Nop())
	ctx, marker := WithSourceMarker(context.Background())

	_, err := Read(ctx, g, "patients", func(context.Context) (int, error) {
		return 0, context.DeadlineExceeded
	}, func() (int, error) { return 1, nil })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, marker.Seed())
	assert.True(t, g.Available())
}

func TestGuard_ProbeRecovers(t *testing.T) {
	p := &fakePinger{err: errRefused}
	g := NewGuard(p, true, zerolog.Nop())

	require.Error(t, g.Probe(context.Background()))
	assert.False(t, g.Available())

	p.err = nil
	require.NoError(t, g.Probe(context.Background()))
	assert.True(t, g.Available())
	assert.Equal(t, 2, p.calls)
}

func TestTxFromContext_Nil(t *testing.T) {
	assert.Nil(t, TxFromContext(context.Background()))
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBTxKey, "not-a-tx")
	assert.Nil(t, TxFromContext(ctx))
}

func TestNoTx_RunsInline(t *testing.T) {
	ran := false
	err := NoTx{}.RunInTx(context.Background(), func(context.Context) error { ran = true; return nil })
	require.NoError(t, err)
	assert.True(t, ran)
}

package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hms/hms/internal/platform/apperr"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// IsUnavailable reports whether err means the database could not be reached,
// as opposed to a query that reached it and failed.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, apperr.ErrUnavailable) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	// context.DeadlineExceeded satisfies net.Error. A query cut off by the
	// request deadline is not an outage.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func wrapUnavailable(err error) error {
	if IsUnavailable(err) && !errors.Is(err, apperr.ErrUnavailable) {
		return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
	}
	return err
}

// Translate maps driver errors onto apperr categories. entity names the row
// kind for not-found messages.
func Translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Conflict("%s already exists", entity)
		case codeForeignKeyViolation:
			return apperr.Validation("%s references a record that does not exist", entity)
		case codeCheckViolation:
			return apperr.Validation("%s violates constraint %s", entity, pgErr.ConstraintName)
		}
	}
	return wrapUnavailable(err)
}

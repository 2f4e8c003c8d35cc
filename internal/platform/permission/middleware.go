package permission

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

// Require returns middleware that rejects callers none of whose roles may
// perform op on module. The module and operation are stored on the echo
// context for the audit log.
func Require(m *Matrix, module Module, op Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextModule, string(module))
			c.Set(ContextOperation, string(op))
			roles := auth.RolesFromContext(c.Request().Context())
			if !m.CanAny(roles, module, op) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("permission denied: %s:%s", module, op))
			}
			return next(c)
		}
	}
}

// Echo context keys set by Require.
const (
	ContextModule    = "permission.module"
	ContextOperation = "permission.operation"
)

// Check is the service-level variant of Require for decisions that depend on
// the request body.
func (m *Matrix) Check(ctx context.Context, module Module, op Operation) error {
	if m.CanAny(auth.RolesFromContext(ctx), module, op) {
		return nil
	}
	return fmt.Errorf("%w: %s:%s", apperr.ErrForbidden, module, op)
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/permission"
)

// Audit emits a type=audit event for every /api/v1 request: who touched which
// module, with what operation, and the outcome. The module and operation come
// from the permission check when the route has one, otherwise from the path
// and method.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
			}

			module, _ := c.Get(permission.ContextModule).(string)
			if module == "" {
				module = moduleFromPath(req.URL.Path)
			}
			action, _ := c.Get(permission.ContextOperation).(string)
			if action == "" {
				action = methodToAction(req.Method)
			}

			ctx := req.Context()
			rid, _ := c.Get("request_id").(string)
			evt := logger.Info()
			if status == http.StatusForbidden || status == http.StatusUnauthorized {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", rid).
				Str("user_id", auth.UserIDFromContext(ctx)).
				Str("username", auth.UsernameFromContext(ctx)).
				Strs("roles", auth.RolesFromContext(ctx)).
				Str("module", module).
				Str("action", action).
				Str("resource_id", c.Param("id")).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Int("status", status).
				Msg("access")

			return err
		}
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// moduleFromPath returns the first segment after /api/v1/.
func moduleFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "unknown"
	}
	return rest
}

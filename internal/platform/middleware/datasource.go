package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/db"
)

const DataSourceHeader = "X-Data-Source"

// DataSource marks responses built from seed data with X-Data-Source: seed.
// The header is added just before the response is written, after handlers
// have had the chance to fall back.
func DataSource() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, marker := db.WithSourceMarker(c.Request().Context())
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Before(func() {
				if marker.Seed() {
					c.Response().Header().Set(DataSourceHeader, "seed")
				}
			})
			return next(c)
		}
	}
}

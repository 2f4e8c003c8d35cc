package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// HealthReport is the body of GET /health/db.
type HealthReport struct {
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	SeedFallback bool       `json:"seed_fallback"`
	Pool         *PoolStats `json:"pool,omitempty"`
}

// HealthHandler probes the database through the guard. While the database is
// down but seed fallback is on, the service reports "degraded" with 200 so
// load balancers keep routing read traffic to it.
func HealthHandler(pool *pgxpool.Pool, guard *Guard) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		report := HealthReport{Status: "healthy", SeedFallback: guard.FallbackEnabled()}
		if pool != nil {
			report.Pool = GetPoolStats(pool)
		}

		if err := guard.Probe(ctx); err != nil {
			report.Error = err.Error()
			if guard.FallbackEnabled() {
				report.Status = "degraded"
				return c.JSON(http.StatusOK, report)
			}
			report.Status = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		return c.JSON(http.StatusOK, report)
	}
}

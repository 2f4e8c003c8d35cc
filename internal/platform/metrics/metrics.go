// Package metrics holds the Prometheus collectors exported by hms-server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hms",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hms",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	SeedFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hms",
			Name:      "seed_fallback_total",
			Help:      "Reads served from seed data because the database was unreachable.",
		},
		[]string{"module"},
	)

	DBAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hms",
			Name:      "db_available",
			Help:      "1 when the last database probe succeeded, 0 otherwise.",
		},
	)

	AppointmentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hms",
			Subsystem: "appointment",
			Name:      "transitions_total",
			Help:      "Appointment status transitions applied, by action.",
		},
		[]string{"action"},
	)

	UnitsDispensed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hms",
			Subsystem: "pharmacy",
			Name:      "units_dispensed_total",
			Help:      "Drug units taken out of stock by dispensing prescriptions.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPDuration,
		SeedFallbacks,
		DBAvailable,
		AppointmentTransitions,
		UnitsDispensed,
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

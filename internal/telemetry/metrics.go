package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReservationsTotal counts reservation attempts by outcome:
	// committed, conflict, rejected or error.
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkinglot_reservations_total",
			Help: "Reservation requests by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	TicketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkinglot_tickets_total",
			Help: "Ticket lifecycle transitions.",
		},
		[]string{"event"},
	)

	BilledCentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parkinglot_billed_cents_total",
			Help: "Sum of fees charged at ticket close-out, in cents.",
		},
	)

	OccupancyCorrectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parkinglot_occupancy_corrections_total",
			Help: "Spaces whose occupied flag was corrected by the reconcile job.",
		},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkinglot_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parkinglot_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	APIActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parkinglot_api_active_connections",
			Help: "In-flight HTTP requests.",
		},
	)
)

// Handler exposes metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

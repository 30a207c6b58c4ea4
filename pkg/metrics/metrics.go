// Package metrics holds the prometheus collectors of the gateway. They are
// registered on the default registry and served on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	GRPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_grpc_requests_total",
			Help: "Total number of gRPC calls by method and status code",
		},
		[]string{"method", "code"},
	)

	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_uploads_total",
			Help: "Total number of file uploads by outcome",
		},
		[]string{"result"}, // "stored", "rejected", "upstream_error", "link_error"
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_upload_bytes_total",
			Help: "Declared size of uploads forwarded to the storage backend",
		},
	)

	OwnershipDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_ownership_denials_total",
			Help: "Total number of requests refused because the caller does not own the entity",
		},
		[]string{"kind"},
	)

	IdentityVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_identity_verifications_total",
			Help: "Total number of identity provider checks by outcome",
		},
		[]string{"result"}, // "accepted", "refused", "error"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

func RecordHTTPRequest(method, route string, status int, took time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

func RecordBreakerTransition(name string, from, to gobreaker.State) {
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

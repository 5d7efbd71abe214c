// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "orderdesk",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orderdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	orderEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "orders",
			Name:      "events_total",
			Help:      "Order lifecycle events (created, updated, status changes).",
		},
		[]string{"event"},
	)

	paymentAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "payments",
			Name:      "attempts_total",
			Help:      "Payment gateway calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	sessionEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "sessions",
			Name:      "evicted_total",
			Help:      "Sessions removed from the store, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	Registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		orderEvents,
		paymentAttempts,
		sessionEvictions,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// IncrementInFlight marks the start of a request.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight marks the end of a request.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records a finished request.
func RecordHTTPRequest(method, path string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordOrderEvent counts an order lifecycle event such as "created" or "status_shipped".
func RecordOrderEvent(event string) {
	orderEvents.WithLabelValues(event).Inc()
}

// RecordPaymentAttempt counts one gateway call.
func RecordPaymentAttempt(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	paymentAttempts.WithLabelValues(operation, outcome).Inc()
}

// RecordSessionEviction counts a removed session.
func RecordSessionEviction(reason string) {
	sessionEvictions.WithLabelValues(reason).Inc()
}

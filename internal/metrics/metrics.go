// Package metrics holds the worker's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewsync_cycles_total",
			Help: "Poll cycles by final status",
		},
		[]string{"status"},
	)

	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "viewsync_cycle_duration_seconds",
			Help:    "Duration of a full poll cycle",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7min
		},
	)

	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewsync_events_total",
			Help: "Fetched view events by store outcome",
		},
		[]string{"outcome"}, // stored, duplicate, invalid, failed
	)

	enrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewsync_enrichment_failures_total",
			Help: "Metadata lookups that fell back to placeholder values",
		},
		[]string{"kind"}, // ticket, agent
	)

	watermark = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viewsync_watermark_timestamp_seconds",
			Help: "Window start of the most recent poll cycle as Unix epoch seconds",
		},
	)

	runStateErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewsync_runstate_errors_total",
			Help: "Run-state bookkeeping failures by operation",
		},
		[]string{"operation"}, // read, append
	)

	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewsync_api_requests_total",
			Help: "Remote API requests by endpoint and status code",
		},
		[]string{"endpoint", "code"},
	)
)

// ObserveCycle records a finished poll cycle.
func ObserveCycle(status string, d time.Duration) {
	cyclesTotal.WithLabelValues(status).Inc()
	cycleDuration.Observe(d.Seconds())
}

// RecordEvent counts one store outcome.
func RecordEvent(outcome string) {
	eventsTotal.WithLabelValues(outcome).Inc()
}

// RecordEnrichmentFailure counts a lookup that fell back to placeholders.
func RecordEnrichmentFailure(kind string) {
	enrichmentFailures.WithLabelValues(kind).Inc()
}

// SetWatermark publishes the window start of the current cycle.
func SetWatermark(t time.Time) {
	watermark.Set(float64(t.Unix()))
}

// RecordRunStateError counts a swallowed bookkeeping failure.
func RecordRunStateError(operation string) {
	runStateErrors.WithLabelValues(operation).Inc()
}

// ObserveAPIRequest counts a remote API call. code 0 means transport error.
func ObserveAPIRequest(endpoint string, code int) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	apiRequests.WithLabelValues(endpoint, label).Inc()
}

// Package metrics provides Prometheus metrics for search runs.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ItemsExtractedTotal counts items that produced a record.
	ItemsExtractedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autovalor_items_extracted_total",
			Help: "Total number of listing items extracted",
		},
		[]string{"source"},
	)

	// ItemFailuresTotal counts items whose extraction failed.
	ItemFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autovalor_item_failures_total",
			Help: "Total number of listing items that failed extraction",
		},
		[]string{"source"},
	)

	// FieldFailuresTotal counts fields that fell back to defaults.
	FieldFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autovalor_field_failures_total",
			Help: "Total number of fields that could not be parsed",
		},
		[]string{"source"},
	)

	// SourceErrorsTotal counts source-level fetch failures.
	SourceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autovalor_source_errors_total",
			Help: "Total number of source fetch failures",
		},
		[]string{"source"},
	)

	// RateFallbacksTotal counts runs that used the fallback exchange rate.
	RateFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "autovalor_rate_fallbacks_total",
			Help: "Total number of exchange rate lookups that used the fallback",
		},
	)

	// EventsDroppedTotal counts observability events dropped on a full channel.
	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "autovalor_events_dropped_total",
			Help: "Total number of observability events dropped",
		},
	)

	// SearchRunsTotal counts completed search runs.
	SearchRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "autovalor_search_runs_total",
			Help: "Total number of completed search runs",
		},
	)

	// SearchDuration is a histogram of full search run latencies.
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autovalor_search_duration_seconds",
			Help:    "Duration of search runs",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autovalor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)
)

var initOnce sync.Once

// Init registers every metric with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			ItemsExtractedTotal,
			ItemFailuresTotal,
			FieldFailuresTotal,
			SourceErrorsTotal,
			RateFallbacksTotal,
			EventsDroppedTotal,
			SearchRunsTotal,
			SearchDuration,
			HTTPRequestsTotal,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSearch records a finished search run.
func RecordSearch(duration time.Duration) {
	SearchRunsTotal.Inc()
	SearchDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

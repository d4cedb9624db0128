// Package metrics provides the Prometheus registry reference and the
// pagination engine metrics for the catalog client.
// Transport, cache and rate limit metrics are defined in their own packages
// (client, cache, ratelimit) to keep those packages self-contained.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the default Prometheus registry used by the catalog client.
// All metrics are automatically registered via promauto.
var Registry = prometheus.DefaultRegisterer

// Page fetch outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// Stream end states used as the "reason" label.
const (
	EndExhausted = "exhausted"
	EndCancelled = "cancelled"
	EndFailed    = "failed"
	EndClosed    = "closed"
)

var (
	// PagesFetched counts page fetches by entity and outcome.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_pages_fetched_total",
		Help: "Total catalog page fetches by entity and outcome",
	}, []string{"entity", "outcome"})

	// PageFetchDuration observes page fetch latency including transport time.
	PageFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_page_fetch_duration_seconds",
		Help:    "Catalog page fetch duration in seconds by entity",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"entity"})

	// ItemsYielded counts items handed to stream consumers.
	ItemsYielded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_stream_items_total",
		Help: "Total items yielded by catalog streams by entity",
	}, []string{"entity"})

	// StreamsEnded counts finished streams by end reason.
	StreamsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_streams_ended_total",
		Help: "Total catalog streams ended by entity and reason",
	}, []string{"entity", "reason"})

	// TruncatedPages counts pages that carried more items than requested.
	TruncatedPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_truncated_pages_total",
		Help: "Pages returned with more items than the requested limit",
	}, []string{"entity"})
)

// Metrics Documentation
//
// Pagination Metrics (pkg/metrics, recorded by pkg/pagination):
//   - catalog_pages_fetched_total{entity, outcome} (Counter): Page fetches (ok, empty, error, cancelled)
//   - catalog_page_fetch_duration_seconds{entity} (Histogram): Page fetch latency
//   - catalog_stream_items_total{entity} (Counter): Items yielded to stream consumers
//   - catalog_streams_ended_total{entity, reason} (Counter): Streams ended (exhausted, cancelled, failed, closed)
//   - catalog_truncated_pages_total{entity} (Counter): Oversized pages truncated to the limit
//
// Rate Limit Metrics (pkg/ratelimit):
//   - catalog_rate_limit_remaining (Gauge): Requests remaining in the current server window
//   - catalog_rate_limit_waits_total{reason} (Counter): Waits imposed before sending (throttle, exhausted)
//   - catalog_rate_limit_wait_seconds (Histogram): Time spent waiting for the limiter
//
// Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - catalog_cache_misses_total (Counter): Cache misses
//   - catalog_cache_size_bytes{layer="redis"} (Gauge): Bytes written to the cache
//   - catalog_304_responses_total (Counter): 304 Not Modified responses
//   - catalog_conditional_requests_total (Counter): Conditional requests sent
//   - catalog_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - catalog_requests_total{entity, status} (Counter): Requests by entity and HTTP status
//   - catalog_request_duration_seconds{entity} (Histogram): Request duration by entity
//   - catalog_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - catalog_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - catalog_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Items per page fetched
//   sum(rate(catalog_stream_items_total[5m])) / sum(rate(catalog_pages_fetched_total{outcome="ok"}[5m]))
//
//   # Stream failure ratio
//   sum(rate(catalog_streams_ended_total{reason="failed"}[5m])) / sum(rate(catalog_streams_ended_total[5m]))
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(catalog_page_fetch_duration_seconds_bucket[5m]))

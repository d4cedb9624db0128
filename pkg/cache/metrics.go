package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Total number of catalog page cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Total number of catalog page cache misses",
		},
	)

	// CacheSize tracks bytes written to the cache by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_cache_size_bytes",
			Help: "Bytes written to the catalog page cache",
		},
		[]string{"layer"},
	)

	// NotModified tracks 304 Not Modified responses
	NotModified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_304_responses_total",
			Help: "Total number of catalog 304 Not Modified responses",
		},
	)

	// ConditionalRequests tracks requests sent with a validator
	ConditionalRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_conditional_requests_total",
			Help: "Total number of conditional catalog requests",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circle_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// CacheLookups counts read-through cache lookups by resource and result (hit|miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circle_cache_lookups_total",
			Help: "Total cache lookups for list/detail queries",
		},
		[]string{"resource", "result"},
	)

	// CacheInvalidations counts keys removed by prefix invalidation. Prefixes
	// embed resource ids, so they are not usable as a label.
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "circle_cache_invalidated_keys_total",
			Help: "Total cache keys removed by prefix invalidation",
		},
	)

	// EventsPublished counts mutation events handed to the fan-out hub.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circle_events_published_total",
			Help: "Total mutation events broadcast to realtime clients",
		},
		[]string{"event"},
	)

	// RealtimeClients tracks currently connected websocket clients.
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "circle_realtime_clients",
			Help: "Number of connected realtime clients",
		},
	)
)

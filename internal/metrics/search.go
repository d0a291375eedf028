package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and listing Prometheus metrics.
var (
	PageCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_cache_total",
			Help:      "Listing page cache lookups by outcome",
		},
		[]string{"result"}, // "hit" / "miss" / "expired"
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of each search stage in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"}, // "embed" / "load" / "rank" / "filter"
	)

	IndexedRoomsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexed_rooms_total",
			Help:      "Rooms processed by the indexer by outcome",
		},
		[]string{"status"}, // "ok" / "error"
	)
)

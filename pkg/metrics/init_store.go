package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trellis_store_operations_total",
			Help: "Total number of snapshot store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	r.StoreOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trellis_store_operation_duration_seconds",
			Help:    "Snapshot store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"backend", "operation"},
	)

	r.StoreSnapshotBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trellis_store_snapshot_bytes",
			Help:    "Encoded snapshot size in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 9),
		},
		[]string{"backend"},
	)
}

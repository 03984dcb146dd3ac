package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the engine and its surfaces.
type Registry struct {
	// Graph metrics
	GraphVerticesTotal prometheus.Gauge
	GraphEdgesTotal    prometheus.Gauge
	MutationsTotal     *prometheus.CounterVec

	// Search metrics
	SearchesTotal  *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	SearchHops     prometheus.Histogram

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreSnapshotBytes     *prometheus.HistogramVec

	// Feed metrics
	FeedEventsTotal    *prometheus.CounterVec
	FeedPublishedTotal prometheus.Counter
	FeedDroppedTotal   prometheus.Counter
	FeedSubscribers    prometheus.Gauge

	// HTTP / query metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	QueriesTotal        *prometheus.CounterVec
	QueryDuration       *prometheus.HistogramVec

	// System metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide metrics registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a metrics registry with all metrics initialized.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initGraphMetrics()
	r.initSearchMetrics()
	r.initStoreMetrics()
	r.initFeedMetrics()
	r.initHTTPMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry for
// exposition handlers and test gathering.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSearchMetrics() {
	r.SearchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trellis_search_total",
			Help: "Total number of shortest-path searches",
		},
		[]string{"status"},
	)

	r.SearchDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trellis_search_duration_seconds",
			Help:    "Shortest-path search duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.SearchHops = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trellis_search_hops",
			Help:    "Edge count of returned routes",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphVerticesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "trellis_graph_vertices_total",
			Help: "Current number of vertices in the graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "trellis_graph_edges_total",
			Help: "Current number of edges in the graph",
		},
	)

	r.MutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trellis_graph_mutations_total",
			Help: "Total number of committed graph mutations",
		},
		[]string{"operation"},
	)
}

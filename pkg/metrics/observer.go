package metrics

import (
	"github.com/dd0wney/trellis/pkg/graph"
)

// Observer returns a graph observer that keeps the mutation counters and
// size gauges current. It works purely from the change record, so it is
// safe to run under the graph's write lock.
func Observer[V comparable, E comparable](r *Registry) graph.Observer[V, E] {
	return func(c graph.Change[V, E]) {
		r.RecordMutation(string(c.Op))

		switch c.Op {
		case graph.OpInsertVertex:
			r.GraphVerticesTotal.Inc()
		case graph.OpRemoveVertex:
			r.GraphVerticesTotal.Dec()
			r.GraphEdgesTotal.Sub(float64(len(c.Cascade)))
		case graph.OpInsertEdge:
			r.GraphEdgesTotal.Inc()
		case graph.OpRemoveEdge:
			r.GraphEdgesTotal.Dec()
		}
	}
}

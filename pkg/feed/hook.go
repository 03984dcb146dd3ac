package feed

import (
	"time"

	"github.com/dd0wney/trellis/pkg/graph"
)

// Hook returns a graph observer that publishes every committed mutation to
// bus. It reads only the handles on the change record and the graph's
// lock-free label funcs, so it is safe to run under the graph's write lock;
// the bus never blocks the mutating goroutine.
func Hook[V comparable, E comparable](g *graph.Graph[V, E], bus *Bus) graph.Observer[V, E] {
	return func(c graph.Change[V, E]) {
		ev := Event{Op: string(c.Op), At: time.Now()}

		switch c.Op {
		case graph.OpInsertVertex:
			ev.Kind = KindVertex
			ev.Label = g.VertexLabel(c.Vertex)
		case graph.OpRemoveVertex:
			ev.Kind = KindVertex
			ev.Label = g.VertexLabel(c.Vertex)
			if len(c.Cascade) > 0 {
				ev.Detail = map[string]any{"cascade": len(c.Cascade)}
			}
		case graph.OpReplaceVertex:
			ev.Kind = KindVertex
			ev.Label = g.VertexLabel(c.Vertex)
			ev.Detail = map[string]any{"prev": g.VertexLabel(c.PrevVertex)}
		case graph.OpInsertEdge, graph.OpRemoveEdge:
			ev.Kind = KindEdge
			ev.Label = g.EdgeLabel(c.Edge)
			ev.Detail = map[string]any{"weight": c.Edge.Weight()}
		case graph.OpReplaceEdge:
			ev.Kind = KindEdge
			ev.Label = g.EdgeLabel(c.Edge)
			ev.Detail = map[string]any{
				"prev":   g.EdgeLabel(c.PrevEdge),
				"weight": c.Edge.Weight(),
			}
		}

		bus.Publish(ev)
	}
}

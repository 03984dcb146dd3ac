// Package route finds minimum-distance paths between graph vertices.
//
// The search enumerates simple paths outward from the source, pruning any
// partial path that is already no shorter than the best complete route found
// so far. Unlike a distance-map Dijkstra it keeps whole Path values, so the
// result carries every hop and the caller can walk, print, or extend it.
package route

import (
	"github.com/dd0wney/trellis/pkg/graph"
)

// Shortest returns the minimum-distance simple path from source to
// destination, or nil when destination is unreachable. Ties between equal
// routes resolve by exploration order, which follows edge insertion order.
//
// Both handles must be live in g; a stale or foreign handle fails with
// ErrInvalidVertex before any traversal starts. The graph is read-locked per
// query step, not for the whole search, so concurrent mutation can change
// the landscape mid-search. Run searches on a quiescent graph when exact
// results matter.
func Shortest[V comparable, E comparable](g *graph.Graph[V, E], source, destination graph.Vertex[V]) (*graph.Path[V, E], error) {
	if !vertexIn(g, source) {
		return nil, &graph.Error{Op: "Shortest", Entity: "vertex", Context: "source not in graph", Cause: graph.ErrInvalidVertex}
	}
	if !vertexIn(g, destination) {
		return nil, &graph.Error{Op: "Shortest", Entity: "vertex", Context: "destination not in graph", Cause: graph.ErrInvalidVertex}
	}

	start, err := graph.StartAt(g, source)
	if err != nil {
		return nil, err
	}

	var best *graph.Path[V, E]
	queue := []*graph.Path[V, E]{start}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if p.EndsAt(destination) {
			if best == nil || p.Distance() < best.Distance() {
				best = p
			}
			continue
		}
		if best != nil && p.Distance() >= best.Distance() {
			continue
		}

		queue = append(queue, expand(g, p)...)
	}

	return best, nil
}

// expand walks the cheapest edge from p's tail to every accessible vertex
// not already on the path, returning the extended paths.
func expand[V comparable, E comparable](g *graph.Graph[V, E], p *graph.Path[V, E]) []*graph.Path[V, E] {
	var out []*graph.Path[V, E]
	seen := make(map[graph.Vertex[V]]struct{})

	for w := range p.AccessibleVertices() {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}

		if p.ContainsVertex(w) {
			continue
		}
		e, ok, err := g.EdgeBetween(p.Tail(), w)
		if err != nil || !ok {
			// The edge vanished between the accessibility scan and the
			// lookup. Skip the hop; the search stays consistent.
			continue
		}
		next, err := p.Walk(e)
		if err != nil {
			continue
		}
		out = append(out, next)
	}
	return out
}

// vertexIn reports whether v is the live handle for its element in g.
func vertexIn[V comparable, E comparable](g *graph.Graph[V, E], v graph.Vertex[V]) bool {
	current, ok := g.VertexOf(v.Element())
	return ok && current == v
}

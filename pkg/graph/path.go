package graph

import (
	"fmt"
	"iter"
	"strings"
)

// Path is an immutable walk over a graph: an origin-anchored sequence of n
// vertices joined by n-1 edges, where edge i connects vertex i to vertex
// i+1 and directed edges are traversed source to target. Walk never mutates
// the receiver, so any number of paths may be derived from a common prefix
// and shared freely across goroutines.
//
// A path captures handles, not graph state: mutating the graph after a path
// is built neither updates nor invalidates the path. Distance keeps working
// from the weights captured on the edge handles.
type Path[V comparable, E comparable] struct {
	g     *Graph[V, E]
	verts []Vertex[V]
	edges []Edge[E]
}

// StartAt creates the origin-only path anchored at v, which must be a live
// vertex of g.
func StartAt[V comparable, E comparable](g *Graph[V, E], v Vertex[V]) (*Path[V, E], error) {
	g.mu.RLock()
	_, ok := g.liveVertex(v)
	g.mu.RUnlock()
	if !ok {
		return nil, vertexError("StartAt", "origin not in graph")
	}
	return &Path[V, E]{g: g, verts: []Vertex[V]{v}}, nil
}

// Walk returns a new path extending this one across e. The edge must be
// traversable from the current tail: a directed edge's source must equal
// the tail, an undirected edge must touch the tail. Anything else,
// including an edge of a different graph instance, fails with
// ErrInvalidTraversal.
func (p *Path[V, E]) Walk(e Edge[E]) (*Path[V, E], error) {
	tail := p.Tail()

	a, b, err := p.g.Endpoints(e)
	if err != nil {
		return nil, traversalError("Walk", "edge not in this graph")
	}
	var next Vertex[V]
	switch {
	case a == tail:
		next = b
	case b == tail && !e.Directed():
		next = a
	default:
		return nil, traversalError("Walk", "edge does not extend the tail")
	}

	verts := make([]Vertex[V], len(p.verts), len(p.verts)+1)
	copy(verts, p.verts)
	edges := make([]Edge[E], len(p.edges), len(p.edges)+1)
	copy(edges, p.edges)

	return &Path[V, E]{
		g:     p.g,
		verts: append(verts, next),
		edges: append(edges, e),
	}, nil
}

// Origin returns the first vertex of the path.
func (p *Path[V, E]) Origin() Vertex[V] {
	return p.verts[0]
}

// Tail returns the last vertex of the path.
func (p *Path[V, E]) Tail() Vertex[V] {
	return p.verts[len(p.verts)-1]
}

// Len returns the number of edges in the path.
func (p *Path[V, E]) Len() int {
	return len(p.edges)
}

// Distance returns the sum of the edge weights along the path; 0 for an
// origin-only path.
func (p *Path[V, E]) Distance() float64 {
	var total float64
	for _, e := range p.edges {
		total += e.Weight()
	}
	return total
}

// ContainsVertex reports whether v appears anywhere on the path.
func (p *Path[V, E]) ContainsVertex(v Vertex[V]) bool {
	for _, pv := range p.verts {
		if pv == v {
			return true
		}
	}
	return false
}

// ContainsEdge reports whether e appears anywhere on the path.
func (p *Path[V, E]) ContainsEdge(e Edge[E]) bool {
	for _, pe := range p.edges {
		if pe == e {
			return true
		}
	}
	return false
}

// EndsAt reports whether v is the path's tail.
func (p *Path[V, E]) EndsAt(v Vertex[V]) bool {
	return p.Tail() == v
}

// Vertices returns a copy of the vertex sequence.
func (p *Path[V, E]) Vertices() []Vertex[V] {
	out := make([]Vertex[V], len(p.verts))
	copy(out, p.verts)
	return out
}

// Edges returns a copy of the edge sequence.
func (p *Path[V, E]) Edges() []Edge[E] {
	out := make([]Edge[E], len(p.edges))
	copy(out, p.edges)
	return out
}

// AccessibleVertices yields the vertices one traversable hop from the tail,
// in edge insertion order: the opposite endpoints of the tail's outbound
// edges (every incident edge in undirected mode). The tail itself is never
// yielded, so self-loops contribute nothing. A vertex reachable over
// several parallel edges is yielded once per edge. The sequence is
// evaluated lazily against the live graph.
func (p *Path[V, E]) AccessibleVertices() iter.Seq[Vertex[V]] {
	return func(yield func(Vertex[V]) bool) {
		tail := p.Tail()
		out, err := p.g.OutboundEdges(tail)
		if err != nil {
			return
		}
		for _, e := range out {
			w, ok, err := p.g.Opposite(tail, e)
			if err != nil || !ok || w == tail {
				continue
			}
			if !yield(w) {
				return
			}
		}
	}
}

// Equal reports structural equality: the two paths visit equal vertex
// sequences and equal edge sequences, element-wise and in order.
func (p *Path[V, E]) Equal(o *Path[V, E]) bool {
	if o == nil || len(p.verts) != len(o.verts) || len(p.edges) != len(o.edges) {
		return false
	}
	for i := range p.verts {
		if p.verts[i] != o.verts[i] {
			return false
		}
	}
	for i := range p.edges {
		if p.edges[i] != o.edges[i] {
			return false
		}
	}
	return true
}

// String renders the vertex sequence, e.g. "A -> B -> C".
func (p *Path[V, E]) String() string {
	parts := make([]string, len(p.verts))
	for i, v := range p.verts {
		parts[i] = fmt.Sprint(v.Element())
	}
	return strings.Join(parts, " -> ")
}

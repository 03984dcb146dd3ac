package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// Vertex is an opaque handle to a vertex owned by a Graph. Handles are
// small comparable values: two handles are equal exactly when they name the
// same vertex identity of the same graph instance. The element is fixed for
// the life of the identity (ReplaceVertex mints a new identity), so it is
// carried on the handle and readable without touching the graph.
//
// The zero Vertex is not a valid handle; any graph operation given one
// fails with ErrInvalidVertex.
type Vertex[V comparable] struct {
	graph   uuid.UUID
	id      uint64
	element V
}

// Element returns the user element this vertex was created with.
func (v Vertex[V]) Element() V {
	return v.element
}

// IsZero reports whether the handle is the zero value.
func (v Vertex[V]) IsZero() bool {
	return v.id == 0
}

// String formats the vertex by its element, for logs and debugging.
func (v Vertex[V]) String() string {
	if v.IsZero() {
		return "<zero vertex>"
	}
	return fmt.Sprint(v.element)
}

// Edge is an opaque handle to an edge owned by a Graph. Element, weight and
// direction are fixed at insertion (ReplaceEdge mints a new identity that
// keeps weight and direction), so they are carried on the handle. Endpoints
// are not: vertex replacement rewires live edges, so endpoint access goes
// through the graph (Endpoints, Opposite).
//
// The zero Edge is not a valid handle; any graph operation given one fails
// with ErrInvalidEdge.
type Edge[E comparable] struct {
	graph    uuid.UUID
	id       uint64
	element  E
	weight   float64
	directed bool
}

// Element returns the user element this edge was created with.
func (e Edge[E]) Element() E {
	return e.element
}

// Weight returns the edge weight resolved at insertion time.
func (e Edge[E]) Weight() float64 {
	return e.weight
}

// Directed reports whether the edge was inserted into a directed graph.
func (e Edge[E]) Directed() bool {
	return e.directed
}

// IsZero reports whether the handle is the zero value.
func (e Edge[E]) IsZero() bool {
	return e.id == 0
}

// String formats the edge by its element, for logs and debugging.
func (e Edge[E]) String() string {
	if e.IsZero() {
		return "<zero edge>"
	}
	return fmt.Sprint(e.element)
}

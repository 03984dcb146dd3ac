package graph

import "fmt"

// WeightFunc resolves an edge weight from the edge element. The graph calls
// it exactly once, at insertion time, when no explicit weight was supplied.
type WeightFunc[E comparable] func(element E) float64

// LabelFunc renders a display label from an element. Export and query
// surfaces use it; the engine itself never inspects elements.
type LabelFunc[T comparable] func(element T) string

// DefaultWeight is the weight assigned when the element carries no weight
// signal of its own.
const DefaultWeight = 1.0

func defaultWeightFunc[E comparable](E) float64 {
	return DefaultWeight
}

func defaultLabelFunc[T comparable](element T) string {
	return fmt.Sprint(element)
}

// Op identifies the mutation that produced a Change.
type Op string

const (
	OpInsertVertex  Op = "insert_vertex"
	OpRemoveVertex  Op = "remove_vertex"
	OpReplaceVertex Op = "replace_vertex"
	OpInsertEdge    Op = "insert_edge"
	OpRemoveEdge    Op = "remove_edge"
	OpReplaceEdge   Op = "replace_edge"
)

// Change describes one committed mutation. For replace operations the
// Vertex/Edge fields carry the new identity and PrevVertex/PrevEdge the
// superseded one (stale by construction, still usable for its element).
// Cascade lists the edges removed together with a vertex.
type Change[V comparable, E comparable] struct {
	Op         Op
	Vertex     Vertex[V]
	PrevVertex Vertex[V]
	Edge       Edge[E]
	PrevEdge   Edge[E]
	Cascade    []Edge[E]
}

// Observer receives every committed mutation, on the mutating goroutine,
// while the graph's write lock is still held. Observers must return quickly
// and must not call back into the graph.
type Observer[V comparable, E comparable] func(Change[V, E])

// Observers combines several observers into one, invoked in order.
func Observers[V comparable, E comparable](fns ...Observer[V, E]) Observer[V, E] {
	return func(c Change[V, E]) {
		for _, fn := range fns {
			if fn != nil {
				fn(c)
			}
		}
	}
}

// Option configures a Graph at construction time.
type Option[V comparable, E comparable] func(*Graph[V, E])

// WithWeightFunc sets the weight resolver consulted when InsertEdge is
// called without an explicit weight. The default resolver returns
// DefaultWeight for every element.
func WithWeightFunc[V comparable, E comparable](fn WeightFunc[E]) Option[V, E] {
	return func(g *Graph[V, E]) {
		if fn != nil {
			g.weightFn = fn
		}
	}
}

// WithVertexLabelFunc sets the label renderer for vertex elements.
func WithVertexLabelFunc[V comparable, E comparable](fn LabelFunc[V]) Option[V, E] {
	return func(g *Graph[V, E]) {
		if fn != nil {
			g.vertexLabel = fn
		}
	}
}

// WithEdgeLabelFunc sets the label renderer for edge elements.
func WithEdgeLabelFunc[V comparable, E comparable](fn LabelFunc[E]) Option[V, E] {
	return func(g *Graph[V, E]) {
		if fn != nil {
			g.edgeLabel = fn
		}
	}
}

// WithObserver registers a mutation observer.
func WithObserver[V comparable, E comparable](fn Observer[V, E]) Option[V, E] {
	return func(g *Graph[V, E]) {
		g.observer = fn
	}
}

// EdgeOption configures a single edge insertion.
type EdgeOption func(*edgeConfig)

type edgeConfig struct {
	weight    float64
	hasWeight bool
	props     map[string]any
}

// WithWeight supplies an explicit weight, bypassing the graph's WeightFunc
// for this edge.
func WithWeight(w float64) EdgeOption {
	return func(c *edgeConfig) {
		c.weight = w
		c.hasWeight = true
	}
}

// WithProperties attaches a property map to the edge. The map is copied.
func WithProperties(props map[string]any) EdgeOption {
	return func(c *edgeConfig) {
		if len(props) == 0 {
			return
		}
		c.props = make(map[string]any, len(props))
		for k, v := range props {
			c.props[k] = v
		}
	}
}

// Package graph implements a mutable, type-generic graph abstract data type.
//
// A Graph owns every vertex and edge it contains; callers hold opaque
// handles (Vertex, Edge) into the instance that issued them. Vertices are
// keyed by their element value and edges by theirs, so a graph can never
// hold two vertices or two edges with equal elements. The same type serves
// undirected and directed graphs; the mode is fixed at construction.
//
// Mutating calls are individually atomic behind a per-instance lock, but no
// cross-call transaction exists: a read sequence such as a route search
// observes concurrent mutation. Callers needing a consistent multi-call view
// must serialize externally.
package graph

import (
	"cmp"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type vertexRecord[V comparable] struct {
	id      uint64
	element V
}

type edgeRecord[E comparable] struct {
	id      uint64
	element E
	weight  float64
	source  uint64 // endpoint A; the source when directed
	target  uint64 // endpoint B; the target when directed
	props   map[string]any
}

// Graph is a mutable graph of user elements V (vertices) and E (edges).
// Construct with New or NewDirected; the zero value is not usable.
type Graph[V comparable, E comparable] struct {
	tag      uuid.UUID
	directed bool

	weightFn    WeightFunc[E]
	vertexLabel LabelFunc[V]
	edgeLabel   LabelFunc[E]
	observer    Observer[V, E]

	mu         sync.RWMutex
	nextID     uint64
	verts      map[uint64]*vertexRecord[V]
	edges      map[uint64]*edgeRecord[E]
	vertByElem map[V]uint64
	edgeByElem map[E]uint64
	touching   map[uint64]map[uint64]struct{} // vertex id -> ids of edges touching it
}

// New creates an empty undirected graph.
func New[V comparable, E comparable](opts ...Option[V, E]) *Graph[V, E] {
	return newGraph(false, opts)
}

// NewDirected creates an empty directed graph.
func NewDirected[V comparable, E comparable](opts ...Option[V, E]) *Graph[V, E] {
	return newGraph(true, opts)
}

func newGraph[V comparable, E comparable](directed bool, opts []Option[V, E]) *Graph[V, E] {
	g := &Graph[V, E]{
		tag:         uuid.New(),
		directed:    directed,
		weightFn:    defaultWeightFunc[E],
		vertexLabel: defaultLabelFunc[V],
		edgeLabel:   defaultLabelFunc[E],
		verts:       make(map[uint64]*vertexRecord[V]),
		edges:       make(map[uint64]*edgeRecord[E]),
		vertByElem:  make(map[V]uint64),
		edgeByElem:  make(map[E]uint64),
		touching:    make(map[uint64]map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Directed reports the graph's direction mode.
func (g *Graph[V, E]) Directed() bool {
	return g.directed
}

// Observe registers fn as the graph's observer, replacing any existing one.
// It exists for observers that need a reference to the graph itself; compose
// several with Observers before attaching.
func (g *Graph[V, E]) Observe(fn Observer[V, E]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observer = fn
}

// NumVertices returns the number of vertices.
func (g *Graph[V, E]) NumVertices() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.verts)
}

// NumEdges returns the number of edges.
func (g *Graph[V, E]) NumEdges() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Vertices returns all vertices in insertion order.
func (g *Graph[V, E]) Vertices() []Vertex[V] {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Vertex[V], 0, len(g.verts))
	for _, rec := range g.verts {
		out = append(out, g.vertexHandle(rec))
	}
	slices.SortFunc(out, func(a, b Vertex[V]) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph[V, E]) Edges() []Edge[E] {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Edge[E], 0, len(g.edges))
	for _, rec := range g.edges {
		out = append(out, g.edgeHandle(rec))
	}
	slices.SortFunc(out, func(a, b Edge[E]) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

// HasVertex reports whether a vertex with the given element exists.
func (g *Graph[V, E]) HasVertex(element V) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.vertByElem[element]
	return ok
}

// HasEdge reports whether an edge with the given element exists.
func (g *Graph[V, E]) HasEdge(element E) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edgeByElem[element]
	return ok
}

// VertexOf looks up the vertex holding the given element.
func (g *Graph[V, E]) VertexOf(element V) (Vertex[V], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	id, ok := g.vertByElem[element]
	if !ok {
		return Vertex[V]{}, false
	}
	return g.vertexHandle(g.verts[id]), true
}

// EdgeOf looks up the edge holding the given element.
func (g *Graph[V, E]) EdgeOf(element E) (Edge[E], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	id, ok := g.edgeByElem[element]
	if !ok {
		return Edge[E]{}, false
	}
	return g.edgeHandle(g.edges[id]), true
}

// VertexLabel renders the display label for a vertex element.
func (g *Graph[V, E]) VertexLabel(v Vertex[V]) string {
	return g.vertexLabel(v.element)
}

// EdgeLabel renders the display label for an edge element.
func (g *Graph[V, E]) EdgeLabel(e Edge[E]) string {
	return g.edgeLabel(e.element)
}

// InsertVertex creates a vertex holding element. It fails with
// ErrInvalidVertex if a vertex with an equal element already exists.
func (g *Graph[V, E]) InsertVertex(element V) (Vertex[V], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.vertByElem[element]; exists {
		return Vertex[V]{}, vertexError("InsertVertex", "element already present")
	}

	rec := &vertexRecord[V]{id: g.newID(), element: element}
	g.verts[rec.id] = rec
	g.vertByElem[element] = rec.id
	g.touching[rec.id] = make(map[uint64]struct{})

	v := g.vertexHandle(rec)
	g.notify(Change[V, E]{Op: OpInsertVertex, Vertex: v})
	return v, nil
}

// InsertEdge creates an edge between u and v holding element. In directed
// mode u is the source and v the target; in undirected mode the endpoint
// order is preserved as stored but has no traversal meaning. It fails with
// ErrInvalidEdge if an edge with an equal element already exists, and with
// ErrInvalidVertex if either handle is zero, foreign, or stale. Without an
// explicit WithWeight option the weight is resolved once via the graph's
// WeightFunc.
func (g *Graph[V, E]) InsertEdge(u, v Vertex[V], element E, opts ...EdgeOption) (Edge[E], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.insertEdgeLocked("InsertEdge", u, v, element, opts)
}

// InsertEdgeBetween is the lookup-by-element form of InsertEdge: endpoints
// are named by their vertex elements. An absent element fails with
// ErrInvalidVertex.
func (g *Graph[V, E]) InsertEdgeBetween(uElem, vElem V, element E, opts ...EdgeOption) (Edge[E], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, ok := g.handleByElemLocked(uElem)
	if !ok {
		return Edge[E]{}, vertexError("InsertEdgeBetween", "no vertex with first element")
	}
	v, ok := g.handleByElemLocked(vElem)
	if !ok {
		return Edge[E]{}, vertexError("InsertEdgeBetween", "no vertex with second element")
	}
	return g.insertEdgeLocked("InsertEdgeBetween", u, v, element, opts)
}

func (g *Graph[V, E]) insertEdgeLocked(op string, u, v Vertex[V], element E, opts []EdgeOption) (Edge[E], error) {
	if _, exists := g.edgeByElem[element]; exists {
		return Edge[E]{}, edgeError(op, "element already present")
	}
	uRec, ok := g.liveVertex(u)
	if !ok {
		return Edge[E]{}, vertexError(op, "first endpoint not in graph")
	}
	vRec, ok := g.liveVertex(v)
	if !ok {
		return Edge[E]{}, vertexError(op, "second endpoint not in graph")
	}

	var cfg edgeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	weight := cfg.weight
	if !cfg.hasWeight {
		weight = g.weightFn(element)
	}

	rec := &edgeRecord[E]{
		id:      g.newID(),
		element: element,
		weight:  weight,
		source:  uRec.id,
		target:  vRec.id,
		props:   cfg.props,
	}
	g.edges[rec.id] = rec
	g.edgeByElem[element] = rec.id
	g.touching[uRec.id][rec.id] = struct{}{}
	g.touching[vRec.id][rec.id] = struct{}{}

	e := g.edgeHandle(rec)
	g.notify(Change[V, E]{Op: OpInsertEdge, Edge: e})
	return e, nil
}

// RemoveVertex removes v and, atomically with it, every edge touching v.
// It returns the removed element and fails with ErrInvalidVertex if the
// handle is zero, foreign, or stale.
func (g *Graph[V, E]) RemoveVertex(v Vertex[V]) (V, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.liveVertex(v)
	if !ok {
		var zero V
		return zero, vertexError("RemoveVertex", "not in graph")
	}

	cascade := make([]Edge[E], 0, len(g.touching[rec.id]))
	for eid := range g.touching[rec.id] {
		cascade = append(cascade, g.edgeHandle(g.edges[eid]))
	}
	slices.SortFunc(cascade, func(a, b Edge[E]) int {
		return cmp.Compare(a.id, b.id)
	})
	for _, e := range cascade {
		g.deleteEdgeLocked(g.edges[e.id])
	}

	delete(g.verts, rec.id)
	delete(g.vertByElem, rec.element)
	delete(g.touching, rec.id)

	g.notify(Change[V, E]{Op: OpRemoveVertex, Vertex: g.vertexHandle(rec), Cascade: cascade})
	return rec.element, nil
}

// RemoveEdge removes e and returns its element. It fails with
// ErrInvalidEdge if the handle is zero, foreign, or stale.
func (g *Graph[V, E]) RemoveEdge(e Edge[E]) (E, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.liveEdge(e)
	if !ok {
		var zero E
		return zero, edgeError("RemoveEdge", "not in graph")
	}

	g.deleteEdgeLocked(rec)
	g.notify(Change[V, E]{Op: OpRemoveEdge, Edge: g.edgeHandle(rec)})
	return rec.element, nil
}

// RemoveEdgeBetween removes the minimum-weight edge connecting the vertices
// holding the two elements (exact direction in directed mode, either order
// in undirected mode) and returns its element. The second return is false
// when no such edge, or either vertex, exists.
func (g *Graph[V, E]) RemoveEdgeBetween(uElem, vElem V) (E, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var zero E
	uID, ok := g.vertByElem[uElem]
	if !ok {
		return zero, false
	}
	vID, ok := g.vertByElem[vElem]
	if !ok {
		return zero, false
	}
	rec := g.edgeBetweenLocked(uID, vID)
	if rec == nil {
		return zero, false
	}

	g.deleteEdgeLocked(rec)
	g.notify(Change[V, E]{Op: OpRemoveEdge, Edge: g.edgeHandle(rec)})
	return rec.element, true
}

// ReplaceVertex swaps v's element for newElement. The swap mints a new
// vertex identity and rewires every edge touching the old one, preserving
// edge elements, weights, directions, and properties. It fails with
// ErrInvalidVertex if the handle is invalid or newElement is already used by
// another vertex. Replacing an element with itself is a no-op.
func (g *Graph[V, E]) ReplaceVertex(v Vertex[V], newElement V) (Vertex[V], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.liveVertex(v)
	if !ok {
		return Vertex[V]{}, vertexError("ReplaceVertex", "not in graph")
	}
	if rec.element == newElement {
		return g.vertexHandle(rec), nil
	}
	if _, exists := g.vertByElem[newElement]; exists {
		return Vertex[V]{}, vertexError("ReplaceVertex", "element already present")
	}

	next := &vertexRecord[V]{id: g.newID(), element: newElement}
	g.verts[next.id] = next
	g.vertByElem[newElement] = next.id
	g.touching[next.id] = g.touching[rec.id]

	for eid := range g.touching[next.id] {
		edge := g.edges[eid]
		if edge.source == rec.id {
			edge.source = next.id
		}
		if edge.target == rec.id {
			edge.target = next.id
		}
	}

	delete(g.verts, rec.id)
	delete(g.vertByElem, rec.element)
	delete(g.touching, rec.id)

	nv := g.vertexHandle(next)
	g.notify(Change[V, E]{Op: OpReplaceVertex, Vertex: nv, PrevVertex: g.vertexHandle(rec)})
	return nv, nil
}

// ReplaceEdge swaps e's element for newElement, preserving endpoints,
// weight, direction, and properties under a new edge identity. It fails
// with ErrInvalidEdge if the handle is invalid or newElement is already used
// by another edge. Replacing an element with itself is a no-op.
func (g *Graph[V, E]) ReplaceEdge(e Edge[E], newElement E) (Edge[E], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.liveEdge(e)
	if !ok {
		return Edge[E]{}, edgeError("ReplaceEdge", "not in graph")
	}
	if rec.element == newElement {
		return g.edgeHandle(rec), nil
	}
	if _, exists := g.edgeByElem[newElement]; exists {
		return Edge[E]{}, edgeError("ReplaceEdge", "element already present")
	}

	next := &edgeRecord[E]{
		id:      g.newID(),
		element: newElement,
		weight:  rec.weight,
		source:  rec.source,
		target:  rec.target,
		props:   rec.props,
	}
	g.edges[next.id] = next
	g.edgeByElem[newElement] = next.id
	g.touching[next.source][next.id] = struct{}{}
	g.touching[next.target][next.id] = struct{}{}

	g.deleteEdgeLocked(rec)

	ne := g.edgeHandle(next)
	g.notify(Change[V, E]{Op: OpReplaceEdge, Edge: ne, PrevEdge: g.edgeHandle(rec)})
	return ne, nil
}

// AreAdjacent reports whether an edge connects u and v. In undirected mode
// endpoint order is irrelevant; in directed mode only an edge with source u
// and target v counts. It fails with ErrInvalidVertex if either handle is
// invalid.
func (g *Graph[V, E]) AreAdjacent(u, v Vertex[V]) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	uRec, ok := g.liveVertex(u)
	if !ok {
		return false, vertexError("AreAdjacent", "first vertex not in graph")
	}
	vRec, ok := g.liveVertex(v)
	if !ok {
		return false, vertexError("AreAdjacent", "second vertex not in graph")
	}

	for eid := range g.touching[uRec.id] {
		rec := g.edges[eid]
		if g.connectsLocked(rec, uRec.id, vRec.id) {
			return true, nil
		}
	}
	return false, nil
}

// IncidentEdges returns, in insertion order, the edges touching v
// (undirected mode) or the edges entering v (directed mode; self-loops are
// reported by OutboundEdges instead, so the two directed views are disjoint
// and together cover every edge touching v).
func (g *Graph[V, E]) IncidentEdges(v Vertex[V]) ([]Edge[E], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.liveVertex(v)
	if !ok {
		return nil, vertexError("IncidentEdges", "not in graph")
	}
	return g.collectEdgesLocked(rec.id, func(e *edgeRecord[E]) bool {
		if !g.directed {
			return true
		}
		return e.target == rec.id && e.source != rec.id
	}), nil
}

// OutboundEdges returns, in insertion order, the edges traversable away
// from v: in directed mode the edges whose source is v (self-loops
// included), in undirected mode every edge touching v.
func (g *Graph[V, E]) OutboundEdges(v Vertex[V]) ([]Edge[E], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.liveVertex(v)
	if !ok {
		return nil, vertexError("OutboundEdges", "not in graph")
	}
	return g.collectEdgesLocked(rec.id, func(e *edgeRecord[E]) bool {
		if !g.directed {
			return true
		}
		return e.source == rec.id
	}), nil
}

// Opposite returns the endpoint of e other than v. The second return is
// false when e does not touch v, which is not an error. Invalid handles fail
// with ErrInvalidVertex or ErrInvalidEdge.
func (g *Graph[V, E]) Opposite(v Vertex[V], e Edge[E]) (Vertex[V], bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	vRec, ok := g.liveVertex(v)
	if !ok {
		return Vertex[V]{}, false, vertexError("Opposite", "not in graph")
	}
	eRec, ok := g.liveEdge(e)
	if !ok {
		return Vertex[V]{}, false, edgeError("Opposite", "not in graph")
	}

	switch vRec.id {
	case eRec.source:
		return g.vertexHandle(g.verts[eRec.target]), true, nil
	case eRec.target:
		return g.vertexHandle(g.verts[eRec.source]), true, nil
	default:
		return Vertex[V]{}, false, nil
	}
}

// Endpoints returns e's endpoints in stored order; in directed mode the
// first is the source and the second the target.
func (g *Graph[V, E]) Endpoints(e Edge[E]) (Vertex[V], Vertex[V], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.liveEdge(e)
	if !ok {
		return Vertex[V]{}, Vertex[V]{}, edgeError("Endpoints", "not in graph")
	}
	return g.vertexHandle(g.verts[rec.source]), g.vertexHandle(g.verts[rec.target]), nil
}

// EdgeBetween returns the minimum-weight edge connecting u and v, breaking
// weight ties toward the earliest inserted edge. Direction is exact in
// directed mode. The second return is false when no such edge exists.
func (g *Graph[V, E]) EdgeBetween(u, v Vertex[V]) (Edge[E], bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	uRec, ok := g.liveVertex(u)
	if !ok {
		return Edge[E]{}, false, vertexError("EdgeBetween", "first vertex not in graph")
	}
	vRec, ok := g.liveVertex(v)
	if !ok {
		return Edge[E]{}, false, vertexError("EdgeBetween", "second vertex not in graph")
	}

	rec := g.edgeBetweenLocked(uRec.id, vRec.id)
	if rec == nil {
		return Edge[E]{}, false, nil
	}
	return g.edgeHandle(rec), true, nil
}

// Properties returns a copy of e's property map; nil when the edge carries
// no properties.
func (g *Graph[V, E]) Properties(e Edge[E]) (map[string]any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.liveEdge(e)
	if !ok {
		return nil, edgeError("Properties", "not in graph")
	}
	if rec.props == nil {
		return nil, nil
	}
	out := make(map[string]any, len(rec.props))
	for k, val := range rec.props {
		out[k] = val
	}
	return out, nil
}

// newID mints the next handle id. Ids are never reused, so a handle to a
// removed or replaced entity can never name a later one.
func (g *Graph[V, E]) newID() uint64 {
	g.nextID++
	return g.nextID
}

func (g *Graph[V, E]) vertexHandle(rec *vertexRecord[V]) Vertex[V] {
	return Vertex[V]{graph: g.tag, id: rec.id, element: rec.element}
}

func (g *Graph[V, E]) edgeHandle(rec *edgeRecord[E]) Edge[E] {
	return Edge[E]{graph: g.tag, id: rec.id, element: rec.element, weight: rec.weight, directed: g.directed}
}

// liveVertex resolves a handle to its record, rejecting zero, foreign, and
// stale handles.
func (g *Graph[V, E]) liveVertex(v Vertex[V]) (*vertexRecord[V], bool) {
	if v.id == 0 || v.graph != g.tag {
		return nil, false
	}
	rec, ok := g.verts[v.id]
	return rec, ok
}

// liveEdge resolves a handle to its record, rejecting zero, foreign, and
// stale handles.
func (g *Graph[V, E]) liveEdge(e Edge[E]) (*edgeRecord[E], bool) {
	if e.id == 0 || e.graph != g.tag {
		return nil, false
	}
	rec, ok := g.edges[e.id]
	return rec, ok
}

func (g *Graph[V, E]) handleByElemLocked(element V) (Vertex[V], bool) {
	id, ok := g.vertByElem[element]
	if !ok {
		return Vertex[V]{}, false
	}
	return g.vertexHandle(g.verts[id]), true
}

// connectsLocked reports whether rec joins uID to vID under the graph's
// direction mode.
func (g *Graph[V, E]) connectsLocked(rec *edgeRecord[E], uID, vID uint64) bool {
	if g.directed {
		return rec.source == uID && rec.target == vID
	}
	return (rec.source == uID && rec.target == vID) || (rec.source == vID && rec.target == uID)
}

// edgeBetweenLocked returns the minimum-weight edge joining uID to vID,
// weight ties broken by lowest id, or nil when none exists.
func (g *Graph[V, E]) edgeBetweenLocked(uID, vID uint64) *edgeRecord[E] {
	var best *edgeRecord[E]
	for eid := range g.touching[uID] {
		rec := g.edges[eid]
		if !g.connectsLocked(rec, uID, vID) {
			continue
		}
		if best == nil || rec.weight < best.weight || (rec.weight == best.weight && rec.id < best.id) {
			best = rec
		}
	}
	return best
}

// collectEdgesLocked gathers the edges touching vID that pass keep, sorted
// by insertion order.
func (g *Graph[V, E]) collectEdgesLocked(vID uint64, keep func(*edgeRecord[E]) bool) []Edge[E] {
	out := make([]Edge[E], 0, len(g.touching[vID]))
	for eid := range g.touching[vID] {
		rec := g.edges[eid]
		if keep(rec) {
			out = append(out, g.edgeHandle(rec))
		}
	}
	slices.SortFunc(out, func(a, b Edge[E]) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

// deleteEdgeLocked unindexes and deletes one edge record.
func (g *Graph[V, E]) deleteEdgeLocked(rec *edgeRecord[E]) {
	if set, ok := g.touching[rec.source]; ok {
		delete(set, rec.id)
	}
	if set, ok := g.touching[rec.target]; ok {
		delete(set, rec.id)
	}
	delete(g.edges, rec.id)
	delete(g.edgeByElem, rec.element)
}

func (g *Graph[V, E]) notify(c Change[V, E]) {
	if g.observer != nil {
		g.observer(c)
	}
}

package graphdoc

import (
	"fmt"

	"github.com/dd0wney/trellis/pkg/graph"
)

// Build constructs the graph the document describes. The document is
// validated first, so a malformed document never half-builds.
func (d *Document) Build(opts ...graph.Option[string, string]) (*graph.Graph[string, string], error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("graphdoc: %w", err)
	}

	var g *graph.Graph[string, string]
	if d.Directed {
		g = graph.NewDirected[string, string](opts...)
	} else {
		g = graph.New[string, string](opts...)
	}

	for _, el := range d.Vertices {
		if _, err := g.InsertVertex(el); err != nil {
			return nil, fmt.Errorf("graphdoc: insert vertex %q: %w", el, err)
		}
	}

	for _, e := range d.Edges {
		var edgeOpts []graph.EdgeOption
		if e.Weight != nil {
			edgeOpts = append(edgeOpts, graph.WithWeight(*e.Weight))
		}
		if len(e.Properties) > 0 {
			edgeOpts = append(edgeOpts, graph.WithProperties(e.Properties))
		}
		if _, err := g.InsertEdgeBetween(e.From, e.To, e.Element, edgeOpts...); err != nil {
			return nil, fmt.Errorf("graphdoc: insert edge %q: %w", e.Element, err)
		}
	}

	return g, nil
}

// Snapshot captures a live graph as a document. Elements render through the
// graph's label funcs, so the document is authoritative only when labels are
// unique; for string-element graphs with default labels they always are.
func Snapshot[V comparable, E comparable](name string, g *graph.Graph[V, E]) (*Document, error) {
	d := &Document{
		Name:     name,
		Directed: g.Directed(),
	}

	for _, v := range g.Vertices() {
		d.Vertices = append(d.Vertices, g.VertexLabel(v))
	}

	for _, e := range g.Edges() {
		u, v, err := g.Endpoints(e)
		if err != nil {
			return nil, fmt.Errorf("graphdoc: snapshot edge %q: %w", g.EdgeLabel(e), err)
		}
		w := e.Weight()
		doc := EdgeDoc{
			Element: g.EdgeLabel(e),
			From:    g.VertexLabel(u),
			To:      g.VertexLabel(v),
			Weight:  &w,
		}
		if props, err := g.Properties(e); err == nil && len(props) > 0 {
			doc.Properties = props
		}
		d.Edges = append(d.Edges, doc)
	}

	// Vertices() and Edges() enumerate in insertion order, so the document
	// is already deterministic and a rebuild preserves tie-break order.
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("graphdoc: snapshot: %w", err)
	}
	return d, nil
}

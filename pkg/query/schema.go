package query

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/trellis/pkg/graph"
	"github.com/dd0wney/trellis/pkg/metrics"
	"github.com/dd0wney/trellis/pkg/route"
)

// buildSchema wires the read-only query surface: health, stats, vertex,
// vertices, edges, adjacent, shortestPath.
func (s *Service) buildSchema() (graphql.Schema, error) {
	edgeType := s.createEdgeType()
	vertexType := s.createVertexType(edgeType)
	pathType := s.createPathType(edgeType)
	statsType := createStatsType()

	queryFields := graphql.Fields{
		"health": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return "ok", nil
			},
		},
		"stats": &graphql.Field{
			Type:    statsType,
			Resolve: s.instrument("stats", s.statsResolver),
		},
		"vertex": &graphql.Field{
			Type: vertexType,
			Args: graphql.FieldConfigArgument{
				"element": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
			},
			Resolve: s.instrument("vertex", s.vertexResolver),
		},
		"vertices": &graphql.Field{
			Type:    graphql.NewList(vertexType),
			Resolve: s.instrument("vertices", s.verticesResolver),
		},
		"edges": &graphql.Field{
			Type:    graphql.NewList(edgeType),
			Resolve: s.instrument("edges", s.edgesResolver),
		},
		"adjacent": &graphql.Field{
			Type: graphql.Boolean,
			Args: graphql.FieldConfigArgument{
				"a": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
				"b": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
			},
			Resolve: s.instrument("adjacent", s.adjacentResolver),
		},
		"shortestPath": &graphql.Field{
			Type: pathType,
			Args: graphql.FieldConfigArgument{
				"source": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
				"destination": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
			},
			Resolve: s.instrument("shortestPath", s.shortestPathResolver),
		},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: queryFields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func (s *Service) createVertexType(edgeType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Vertex",
		Fields: graphql.Fields{
			"element": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if v, ok := p.Source.(graph.Vertex[string]); ok {
						return v.Element(), nil
					}
					return nil, nil
				},
			},
			"label": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if v, ok := p.Source.(graph.Vertex[string]); ok {
						return s.graphFrom(p).VertexLabel(v), nil
					}
					return nil, nil
				},
			},
			"incidentEdges": &graphql.Field{
				Type: graphql.NewList(edgeType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if v, ok := p.Source.(graph.Vertex[string]); ok {
						return s.graphFrom(p).IncidentEdges(v)
					}
					return nil, nil
				},
			},
			"outboundEdges": &graphql.Field{
				Type: graphql.NewList(edgeType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if v, ok := p.Source.(graph.Vertex[string]); ok {
						return s.graphFrom(p).OutboundEdges(v)
					}
					return nil, nil
				},
			},
		},
	})
}

func (s *Service) createEdgeType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Edge",
		Fields: graphql.Fields{
			"element": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if e, ok := p.Source.(graph.Edge[string]); ok {
						return e.Element(), nil
					}
					return nil, nil
				},
			},
			"weight": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Float),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if e, ok := p.Source.(graph.Edge[string]); ok {
						return e.Weight(), nil
					}
					return nil, nil
				},
			},
			"directed": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if e, ok := p.Source.(graph.Edge[string]); ok {
						return e.Directed(), nil
					}
					return nil, nil
				},
			},
			"from": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if e, ok := p.Source.(graph.Edge[string]); ok {
						from, _, err := s.graphFrom(p).Endpoints(e)
						if err != nil {
							return nil, err
						}
						return from.Element(), nil
					}
					return nil, nil
				},
			},
			"to": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if e, ok := p.Source.(graph.Edge[string]); ok {
						_, to, err := s.graphFrom(p).Endpoints(e)
						if err != nil {
							return nil, err
						}
						return to.Element(), nil
					}
					return nil, nil
				},
			},
			"properties": &graphql.Field{
				Type: graphql.String, // JSON string
				Resolve: func(p graphql.ResolveParams) (any, error) {
					e, ok := p.Source.(graph.Edge[string])
					if !ok {
						return nil, nil
					}
					props, err := s.graphFrom(p).Properties(e)
					if err != nil {
						return nil, err
					}
					if len(props) == 0 {
						return nil, nil
					}
					data, err := json.Marshal(props)
					if err != nil {
						return nil, err
					}
					return string(data), nil
				},
			},
		},
	})
}

func (s *Service) createPathType(edgeType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Path",
		Fields: graphql.Fields{
			"distance": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Float),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if path, ok := p.Source.(*graph.Path[string, string]); ok {
						return path.Distance(), nil
					}
					return nil, nil
				},
			},
			"hops": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if path, ok := p.Source.(*graph.Path[string, string]); ok {
						return path.Len(), nil
					}
					return nil, nil
				},
			},
			"vertices": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(graphql.String)),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					path, ok := p.Source.(*graph.Path[string, string])
					if !ok {
						return nil, nil
					}
					elements := make([]string, 0, path.Len()+1)
					for _, v := range path.Vertices() {
						elements = append(elements, v.Element())
					}
					return elements, nil
				},
			},
			"edges": &graphql.Field{
				Type: graphql.NewList(edgeType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if path, ok := p.Source.(*graph.Path[string, string]); ok {
						return path.Edges(), nil
					}
					return nil, nil
				},
			},
		},
	})
}

func createStatsType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Stats",
		Fields: graphql.Fields{
			"vertices": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"edges": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"directed": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
		},
	})
}

func (s *Service) statsResolver(p graphql.ResolveParams) (any, error) {
	g := s.graphFrom(p)
	return map[string]any{
		"vertices": g.NumVertices(),
		"edges":    g.NumEdges(),
		"directed": g.Directed(),
	}, nil
}

func (s *Service) vertexResolver(p graphql.ResolveParams) (any, error) {
	element, ok := p.Args["element"].(string)
	if !ok {
		return nil, fmt.Errorf("element argument is required")
	}

	v, ok := s.graphFrom(p).VertexOf(element)
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (s *Service) verticesResolver(p graphql.ResolveParams) (any, error) {
	return s.graphFrom(p).Vertices(), nil
}

func (s *Service) edgesResolver(p graphql.ResolveParams) (any, error) {
	return s.graphFrom(p).Edges(), nil
}

func (s *Service) adjacentResolver(p graphql.ResolveParams) (any, error) {
	a, ok := p.Args["a"].(string)
	if !ok {
		return nil, fmt.Errorf("a argument is required")
	}
	b, ok := p.Args["b"].(string)
	if !ok {
		return nil, fmt.Errorf("b argument is required")
	}

	g := s.graphFrom(p)
	va, ok := g.VertexOf(a)
	if !ok {
		return nil, fmt.Errorf("unknown vertex %q", a)
	}
	vb, ok := g.VertexOf(b)
	if !ok {
		return nil, fmt.Errorf("unknown vertex %q", b)
	}

	return g.AreAdjacent(va, vb)
}

func (s *Service) shortestPathResolver(p graphql.ResolveParams) (any, error) {
	source, ok := p.Args["source"].(string)
	if !ok {
		return nil, fmt.Errorf("source argument is required")
	}
	destination, ok := p.Args["destination"].(string)
	if !ok {
		return nil, fmt.Errorf("destination argument is required")
	}

	g := s.graphFrom(p)
	sv, ok := g.VertexOf(source)
	if !ok {
		return nil, fmt.Errorf("unknown vertex %q", source)
	}
	dv, ok := g.VertexOf(destination)
	if !ok {
		return nil, fmt.Errorf("unknown vertex %q", destination)
	}

	start := time.Now()
	path, err := route.Shortest(g, sv, dv)
	if err != nil {
		s.recordSearch(metrics.SearchError, start, 0)
		return nil, err
	}
	if path == nil {
		s.recordSearch(metrics.SearchUnreachable, start, 0)
		return nil, nil
	}
	s.recordSearch(metrics.SearchFound, start, path.Len())
	return path, nil
}

func (s *Service) recordSearch(status string, start time.Time, hops int) {
	if s.reg == nil {
		return
	}
	s.reg.RecordSearch(status, time.Since(start), hops)
}

// Package query exposes one bound graph over a read-only GraphQL surface.
// The graph behind the service can be swapped at runtime (hot reload); each
// execution pins the graph it started with, so resolvers within one query
// always see the same instance.
package query

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/trellis/pkg/graph"
	"github.com/dd0wney/trellis/pkg/logging"
	"github.com/dd0wney/trellis/pkg/metrics"
)

type graphKey struct{}

// Service executes GraphQL queries against the currently bound graph.
type Service struct {
	current atomic.Pointer[graph.Graph[string, string]]
	reg     *metrics.Registry
	log     logging.Logger
	schema  graphql.Schema
}

// NewService builds the schema around g. reg may be nil to disable metrics.
func NewService(g *graph.Graph[string, string], reg *metrics.Registry) (*Service, error) {
	if g == nil {
		return nil, errors.New("graph cannot be nil")
	}

	s := &Service{
		reg: reg,
		log: logging.With(logging.Component("query")),
	}
	s.current.Store(g)

	schema, err := s.buildSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	s.schema = schema
	return s, nil
}

// Graph returns the currently bound graph.
func (s *Service) Graph() *graph.Graph[string, string] {
	return s.current.Load()
}

// Bind swaps the graph served by this service. In-flight executions keep the
// instance they started with.
func (s *Service) Bind(g *graph.Graph[string, string]) {
	if g == nil {
		return
	}
	s.current.Store(g)
	s.log.Info("graph rebound",
		logging.Vertices(g.NumVertices()),
		logging.Edges(g.NumEdges()))
}

// Schema exposes the compiled schema for direct graphql.Do callers.
func (s *Service) Schema() graphql.Schema {
	return s.schema
}

// Execute runs one query. variables may be nil.
func (s *Service) Execute(ctx context.Context, query string, variables map[string]any) *graphql.Result {
	ctx = context.WithValue(ctx, graphKey{}, s.Graph())
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  query,
		VariableValues: variables,
		Context:        ctx,
	})
}

// graphFrom returns the graph pinned to this execution.
func (s *Service) graphFrom(p graphql.ResolveParams) *graph.Graph[string, string] {
	if g, ok := p.Context.Value(graphKey{}).(*graph.Graph[string, string]); ok {
		return g
	}
	return s.Graph()
}

// instrument wraps a top-level resolver with per-field counters.
func (s *Service) instrument(field string, fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		start := time.Now()
		out, err := fn(p)
		if s.reg != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			s.reg.RecordQuery(field, status, time.Since(start))
		}
		return out, err
	}
}

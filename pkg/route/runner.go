package route

import (
	"github.com/dd0wney/trellis/pkg/graph"
	"github.com/dd0wney/trellis/pkg/logging"
	"github.com/dd0wney/trellis/pkg/parallel"
)

// Pair names one source/destination query.
type Pair[V comparable] struct {
	Source      graph.Vertex[V]
	Destination graph.Vertex[V]
}

// Result is the outcome of routing one Pair. Path is nil when the
// destination is unreachable or when Err is set.
type Result[V comparable, E comparable] struct {
	Pair Pair[V]
	Path *graph.Path[V, E]
	Err  error
}

// ShortestAll routes every pair concurrently over a bounded worker pool and
// returns results in input order. Workers below one are clamped to one.
func ShortestAll[V comparable, E comparable](g *graph.Graph[V, E], pairs []Pair[V], workers int) []Result[V, E] {
	results := make([]Result[V, E], len(pairs))
	if len(pairs) == 0 {
		return results
	}

	logging.Debug("routing batch",
		logging.Count(len(pairs)),
		logging.Int("workers", workers))

	pool := parallel.New(workers)
	for i, pair := range pairs {
		results[i].Pair = pair
		pool.Submit(func() {
			results[i].Path, results[i].Err = Shortest(g, pair.Source, pair.Destination)
		})
	}
	pool.Close()

	return results
}

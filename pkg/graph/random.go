package graph

import (
	"fmt"
	"math/rand"
)

// Populate fills g with n vertices and randomly chosen edges. Vertices are
// created from vertexFor(0..n-1); then every unordered pair (i, j) with
// j <= i, self-loops included, receives an edge built from edgeFor(i, j)
// with probability p. The same seed always produces the same graph, and the
// expected edge count is p*n*(n+1)/2 in both direction modes. It returns
// the number of edges inserted.
//
// Elements produced by vertexFor and edgeFor must be unique per index;
// collisions surface as ErrInvalidVertex or ErrInvalidEdge.
func Populate[V comparable, E comparable](g *Graph[V, E], n int, p float64, vertexFor func(i int) V, edgeFor func(i, j int) E, seed int64) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("populate: negative vertex count %d", n)
	}
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("populate: probability %v outside [0, 1]", p)
	}

	verts := make([]Vertex[V], n)
	for i := 0; i < n; i++ {
		v, err := g.InsertVertex(vertexFor(i))
		if err != nil {
			return 0, err
		}
		verts[i] = v
	}

	rng := rand.New(rand.NewSource(seed))
	inserted := 0
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			if rng.Float64() >= p {
				continue
			}
			if _, err := g.InsertEdge(verts[i], verts[j], edgeFor(i, j)); err != nil {
				return inserted, err
			}
			inserted++
		}
	}
	return inserted, nil
}

package route

import (
	"errors"
	"slices"
	"testing"

	"github.com/dd0wney/trellis/pkg/graph"
)

// fiveNet builds the undirected benchmark network
//
//	A -- B   B -- D
//	A -- C   C -- D   D -- E
//
// with every edge weighted 1.0 except A--C, which takes acWeight.
func fiveNet(t *testing.T, acWeight float64) (*graph.Graph[string, string], map[string]graph.Vertex[string]) {
	t.Helper()

	g := graph.New[string, string]()
	vs := make(map[string]graph.Vertex[string])
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		v, err := g.InsertVertex(name)
		if err != nil {
			t.Fatalf("Failed to insert vertex %s: %v", name, err)
		}
		vs[name] = v
	}

	edges := []struct {
		u, v, elem string
		weight     float64
	}{
		{"A", "B", "ab", 1.0},
		{"A", "C", "ac", acWeight},
		{"B", "D", "bd", 1.0},
		{"C", "D", "cd", 1.0},
		{"D", "E", "de", 1.0},
	}
	for _, e := range edges {
		if _, err := g.InsertEdge(vs[e.u], vs[e.v], e.elem, graph.WithWeight(e.weight)); err != nil {
			t.Fatalf("Failed to insert edge %s: %v", e.elem, err)
		}
	}
	return g, vs
}

// nineNet builds the directed benchmark network with two routes A to I:
// four hops of 2.0 through B,C,D and five hops of 0.1 through E,F,G,H.
func nineNet(t *testing.T) (*graph.Graph[string, string], map[string]graph.Vertex[string]) {
	t.Helper()

	g := graph.NewDirected[string, string]()
	vs := make(map[string]graph.Vertex[string])
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"} {
		v, err := g.InsertVertex(name)
		if err != nil {
			t.Fatalf("Failed to insert vertex %s: %v", name, err)
		}
		vs[name] = v
	}

	edges := []struct {
		u, v, elem string
		weight     float64
	}{
		{"A", "B", "ab", 2.0},
		{"B", "C", "bc", 2.0},
		{"C", "D", "cd", 2.0},
		{"D", "I", "di", 2.0},
		{"A", "E", "ae", 0.1},
		{"E", "F", "ef", 0.1},
		{"F", "G", "fg", 0.1},
		{"G", "H", "gh", 0.1},
		{"H", "I", "hi", 0.1},
	}
	for _, e := range edges {
		if _, err := g.InsertEdge(vs[e.u], vs[e.v], e.elem, graph.WithWeight(e.weight)); err != nil {
			t.Fatalf("Failed to insert edge %s: %v", e.elem, err)
		}
	}
	return g, vs
}

func elements(p *graph.Path[string, string]) []string {
	out := make([]string, 0, p.Len()+1)
	for _, v := range p.Vertices() {
		out = append(out, v.Element())
	}
	return out
}

func TestShortest_UndirectedMinimum(t *testing.T) {
	g, vs := fiveNet(t, 0.9)

	p, err := Shortest(g, vs["A"], vs["E"])
	if err != nil {
		t.Fatalf("Failed to route A to E: %v", err)
	}
	if p == nil {
		t.Fatal("Expected a route, got nil")
	}
	if got := elements(p); !slices.Equal(got, []string{"A", "C", "D", "E"}) {
		t.Errorf("Expected route A C D E, got %v", got)
	}
	if p.Distance() != 2.9 {
		t.Errorf("Expected distance 2.9, got %v", p.Distance())
	}
}

func TestShortest_EqualRoutesTieAtThree(t *testing.T) {
	g, vs := fiveNet(t, 1.0)

	p, err := Shortest(g, vs["A"], vs["E"])
	if err != nil {
		t.Fatalf("Failed to route A to E: %v", err)
	}
	if p.Distance() != 3.0 {
		t.Errorf("Expected distance 3.0, got %v", p.Distance())
	}
	if p.Len() != 3 {
		t.Errorf("Expected 3 hops, got %d", p.Len())
	}
	if p.Origin() != vs["A"] || !p.EndsAt(vs["E"]) {
		t.Errorf("Expected a route from A to E, got %v", p)
	}
}

func TestShortest_DirectedPrefersCheapLongRoute(t *testing.T) {
	g, vs := nineNet(t)

	p, err := Shortest(g, vs["A"], vs["I"])
	if err != nil {
		t.Fatalf("Failed to route A to I: %v", err)
	}
	if got := elements(p); !slices.Equal(got, []string{"A", "E", "F", "G", "H", "I"}) {
		t.Errorf("Expected the five-hop route, got %v", got)
	}
	if p.Distance() != 0.5 {
		t.Errorf("Expected distance 0.5, got %v", p.Distance())
	}
}

func TestShortest_DirectionBlocksReturnRoute(t *testing.T) {
	g, vs := nineNet(t)

	p, err := Shortest(g, vs["I"], vs["A"])
	if err != nil {
		t.Fatalf("Unreachable should not be an error: %v", err)
	}
	if p != nil {
		t.Errorf("Expected no route against edge direction, got %v", p)
	}
}

func TestShortest_Unreachable(t *testing.T) {
	g, vs := fiveNet(t, 1.0)
	island, err := g.InsertVertex("Z")
	if err != nil {
		t.Fatalf("Failed to insert vertex: %v", err)
	}

	p, err := Shortest(g, vs["A"], island)
	if err != nil {
		t.Fatalf("Unreachable should not be an error: %v", err)
	}
	if p != nil {
		t.Errorf("Expected nil route to an isolated vertex, got %v", p)
	}
}

func TestShortest_SameSourceAndDestination(t *testing.T) {
	g, vs := fiveNet(t, 1.0)

	p, err := Shortest(g, vs["A"], vs["A"])
	if err != nil {
		t.Fatalf("Failed to route A to A: %v", err)
	}
	if p.Len() != 0 || p.Distance() != 0 {
		t.Errorf("Expected the origin-only path, got %v", p)
	}
	if !p.EndsAt(vs["A"]) {
		t.Error("Expected the path to end at its origin")
	}
}

func TestShortest_InvalidEndpoints(t *testing.T) {
	g, vs := fiveNet(t, 1.0)
	other := graph.New[string, string]()
	foreign, _ := other.InsertVertex("A")
	zombie, _ := g.InsertVertex("Z")
	if _, err := g.RemoveVertex(zombie); err != nil {
		t.Fatalf("Failed to remove vertex: %v", err)
	}

	cases := []struct {
		name     string
		src, dst graph.Vertex[string]
	}{
		{"zero source", graph.Vertex[string]{}, vs["E"]},
		{"foreign source", foreign, vs["E"]},
		{"stale source", zombie, vs["E"]},
		{"stale destination", vs["A"], zombie},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Shortest(g, tc.src, tc.dst)
			if !errors.Is(err, graph.ErrInvalidVertex) {
				t.Errorf("Expected ErrInvalidVertex, got %v", err)
			}
			if p != nil {
				t.Errorf("Expected nil path on invalid endpoint, got %v", p)
			}

			var ge *graph.Error
			if !errors.As(err, &ge) || ge.Op != "Shortest" {
				t.Errorf("Expected a structured Shortest error, got %v", err)
			}
		})
	}
}

func TestShortest_ParallelEdgesUseCheapest(t *testing.T) {
	g := graph.New[string, string]()
	a, _ := g.InsertVertex("A")
	b, _ := g.InsertVertex("B")
	if _, err := g.InsertEdge(a, b, "toll", graph.WithWeight(5.0)); err != nil {
		t.Fatalf("Failed to insert edge: %v", err)
	}
	if _, err := g.InsertEdge(a, b, "free", graph.WithWeight(1.0)); err != nil {
		t.Fatalf("Failed to insert edge: %v", err)
	}

	p, err := Shortest(g, a, b)
	if err != nil {
		t.Fatalf("Failed to route A to B: %v", err)
	}
	if p.Distance() != 1.0 {
		t.Errorf("Expected distance 1.0 over the cheap edge, got %v", p.Distance())
	}
	if got := p.Edges()[0].Element(); got != "free" {
		t.Errorf("Expected the free edge, got %s", got)
	}
}

func TestShortest_DetourBeatsDirectEdge(t *testing.T) {
	g := graph.New[string, string]()
	names := []string{"A", "B", "C", "D"}
	vs := make(map[string]graph.Vertex[string], len(names))
	for _, name := range names {
		v, _ := g.InsertVertex(name)
		vs[name] = v
	}
	g.InsertEdge(vs["A"], vs["B"], "direct", graph.WithWeight(10.0))
	g.InsertEdge(vs["A"], vs["C"], "ac", graph.WithWeight(1.0))
	g.InsertEdge(vs["C"], vs["D"], "cd", graph.WithWeight(1.0))
	g.InsertEdge(vs["D"], vs["B"], "db", graph.WithWeight(1.0))

	p, err := Shortest(g, vs["A"], vs["B"])
	if err != nil {
		t.Fatalf("Failed to route A to B: %v", err)
	}
	if got := elements(p); !slices.Equal(got, []string{"A", "C", "D", "B"}) {
		t.Errorf("Expected the detour route, got %v", got)
	}
	if p.Distance() != 3.0 {
		t.Errorf("Expected distance 3.0, got %v", p.Distance())
	}
}

func TestShortestAll_ResultsInInputOrder(t *testing.T) {
	g, vs := fiveNet(t, 0.9)
	island, _ := g.InsertVertex("Z")
	zombie, _ := g.InsertVertex("ZZ")
	if _, err := g.RemoveVertex(zombie); err != nil {
		t.Fatalf("Failed to remove vertex: %v", err)
	}

	pairs := []Pair[string]{
		{Source: vs["A"], Destination: vs["E"]},
		{Source: vs["E"], Destination: vs["A"]},
		{Source: vs["A"], Destination: island},
		{Source: zombie, Destination: vs["A"]},
	}

	results := ShortestAll(g, pairs, 4)
	if len(results) != len(pairs) {
		t.Fatalf("Expected %d results, got %d", len(pairs), len(results))
	}
	for i, r := range results {
		if r.Pair != pairs[i] {
			t.Errorf("Result %d carries pair %v, expected %v", i, r.Pair, pairs[i])
		}
	}

	if results[0].Err != nil || results[0].Path == nil || results[0].Path.Distance() != 2.9 {
		t.Errorf("Expected a 2.9 route for A to E, got %v (%v)", results[0].Path, results[0].Err)
	}
	if results[1].Err != nil || results[1].Path == nil || results[1].Path.Distance() != 2.9 {
		t.Errorf("Expected a 2.9 route for E to A, got %v (%v)", results[1].Path, results[1].Err)
	}
	if results[2].Err != nil || results[2].Path != nil {
		t.Errorf("Expected nil route for the isolated vertex, got %v (%v)", results[2].Path, results[2].Err)
	}
	if !errors.Is(results[3].Err, graph.ErrInvalidVertex) {
		t.Errorf("Expected ErrInvalidVertex for the stale source, got %v", results[3].Err)
	}
}

func TestShortestAll_Empty(t *testing.T) {
	g, _ := fiveNet(t, 1.0)

	var pairs []Pair[string]
	results := ShortestAll(g, pairs, 2)
	if len(results) != 0 {
		t.Errorf("Expected no results for no pairs, got %d", len(results))
	}
}

// Command route-demo walks through the engine: it builds two small
// networks, runs shortest-route searches over them, routes a batch over the
// worker pool, populates a random graph, and captures a document snapshot.
package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/dd0wney/trellis/pkg/graph"
	"github.com/dd0wney/trellis/pkg/graphdoc"
	"github.com/dd0wney/trellis/pkg/route"
)

func main() {
	fmt.Println("🚀 Trellis route demo")

	fmt.Println("\n📊 Building transit network (undirected)...")
	transit := graph.New[string, string]()
	for _, station := range []string{"A", "B", "C", "D", "E"} {
		if _, err := transit.InsertVertex(station); err != nil {
			log.Fatalf("Failed to insert station: %v", err)
		}
	}
	transitLines := []struct {
		element  string
		from, to string
		weight   float64
	}{
		{"ab", "A", "B", 1.0},
		{"ac", "A", "C", 0.9},
		{"bd", "B", "D", 1.0},
		{"cd", "C", "D", 1.0},
		{"de", "D", "E", 1.0},
	}
	for _, line := range transitLines {
		if _, err := transit.InsertEdgeBetween(line.from, line.to, line.element,
			graph.WithWeight(line.weight)); err != nil {
			log.Fatalf("Failed to insert line: %v", err)
		}
		fmt.Printf("  %s –[%s %.1f]– %s\n", line.from, line.element, line.weight, line.to)
	}

	fmt.Println("\n🛤️  Shortest route: A → E (the 0.9 shortcut wins)...")
	printRoute(transit, "A", "E")

	fmt.Println("\n🛤️  Shortest route: E → A (undirected runs both ways)...")
	printRoute(transit, "E", "A")

	fmt.Println("\n📊 Building freight network (directed)...")
	freight := graph.NewDirected[string, string]()
	for _, depot := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"} {
		if _, err := freight.InsertVertex(depot); err != nil {
			log.Fatalf("Failed to insert depot: %v", err)
		}
	}
	freightLegs := []struct {
		element  string
		from, to string
		weight   float64
	}{
		{"ab", "A", "B", 2.0},
		{"bc", "B", "C", 2.0},
		{"cd", "C", "D", 2.0},
		{"di", "D", "I", 2.0},
		{"ae", "A", "E", 0.1},
		{"ef", "E", "F", 0.1},
		{"fg", "F", "G", 0.1},
		{"gh", "G", "H", 0.1},
		{"hi", "H", "I", 0.1},
	}
	for _, leg := range freightLegs {
		if _, err := freight.InsertEdgeBetween(leg.from, leg.to, leg.element,
			graph.WithWeight(leg.weight)); err != nil {
			log.Fatalf("Failed to insert leg: %v", err)
		}
		fmt.Printf("  %s –[%s %.1f]→ %s\n", leg.from, leg.element, leg.weight, leg.to)
	}

	fmt.Println("\n🛤️  Shortest route: A → I (five cheap hops beat four dear ones)...")
	printRoute(freight, "A", "I")

	fmt.Println("\n🛤️  Shortest route: I → A (direction matters)...")
	printRoute(freight, "I", "A")

	fmt.Println("\n⚡ Routing a batch over the worker pool...")
	pairs := make([]route.Pair[string], 0, 4)
	for _, q := range [][2]string{{"A", "E"}, {"B", "E"}, {"E", "B"}, {"C", "A"}} {
		src, _ := transit.VertexOf(q[0])
		dst, _ := transit.VertexOf(q[1])
		pairs = append(pairs, route.Pair[string]{Source: src, Destination: dst})
	}
	for _, res := range route.ShortestAll(transit, pairs, 4) {
		from := transit.VertexLabel(res.Pair.Source)
		to := transit.VertexLabel(res.Pair.Destination)
		switch {
		case res.Err != nil:
			fmt.Printf("  %s → %s: search failed: %v\n", from, to, res.Err)
		case res.Path == nil:
			fmt.Printf("  %s → %s: no route\n", from, to)
		default:
			fmt.Printf("  %s → %s: %s (%.1f)\n", from, to, routeString(transit, res.Path), res.Path.Distance())
		}
	}

	fmt.Println("\n🎲 Populating a random graph (n=100, p=0.1, seed=42)...")
	random := graph.New[string, string]()
	inserted, err := graph.Populate(random, 100, 0.1,
		func(i int) string { return fmt.Sprintf("v%d", i) },
		func(i, j int) string { return fmt.Sprintf("e%d-%d", i, j) },
		42)
	if err != nil {
		log.Fatalf("Failed to populate: %v", err)
	}
	fmt.Printf("  Inserted %d edges over %d vertices (expected ≈ %.0f)\n",
		inserted, random.NumVertices(), 0.1*100*101/2)

	fmt.Println("\n💾 Capturing the transit network as a document...")
	doc, err := graphdoc.Snapshot("transit", transit)
	if err != nil {
		log.Fatalf("Failed to snapshot: %v", err)
	}
	data, err := doc.EncodeYAML()
	if err != nil {
		log.Fatalf("Failed to encode: %v", err)
	}
	fmt.Println(indent(string(data)))

	fmt.Println("✨ Demo complete!")
}

func printRoute(g *graph.Graph[string, string], from, to string) {
	src, ok := g.VertexOf(from)
	if !ok {
		log.Fatalf("Unknown vertex %q", from)
	}
	dst, ok := g.VertexOf(to)
	if !ok {
		log.Fatalf("Unknown vertex %q", to)
	}

	path, err := route.Shortest(g, src, dst)
	if err != nil {
		fmt.Printf("  Search failed: %v\n", err)
		return
	}
	if path == nil {
		fmt.Printf("  No route from %s to %s\n", from, to)
		return
	}

	fmt.Printf("  %s\n", routeString(g, path))
	fmt.Printf("  Distance: %.1f over %d hops\n", path.Distance(), path.Len())
}

func routeString(g *graph.Graph[string, string], p *graph.Path[string, string]) string {
	verts := p.Vertices()
	edges := p.Edges()

	var b strings.Builder
	for i, v := range verts {
		b.WriteString(g.VertexLabel(v))
		if i < len(edges) {
			fmt.Fprintf(&b, " -[%s %.1f]-> ", g.EdgeLabel(edges[i]), edges[i].Weight())
		}
	}
	return b.String()
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return "  " + strings.Join(lines, "\n  ")
}

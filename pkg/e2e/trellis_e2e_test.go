// Package e2e assembles the full serving stack in-process, document to
// store to graph to GraphQL over HTTP, and walks it the way an operator
// would.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/trellis/pkg/feed"
	"github.com/dd0wney/trellis/pkg/graph"
	"github.com/dd0wney/trellis/pkg/graphdoc"
	"github.com/dd0wney/trellis/pkg/metrics"
	"github.com/dd0wney/trellis/pkg/query"
	"github.com/dd0wney/trellis/pkg/store"
)

const transitYAML = `name: transit
directed: false
vertices: [A, B, C, D, E]
edges:
  - {element: ab, from: A, to: B, weight: 1.0}
  - {element: ac, from: A, to: C, weight: 0.9}
  - {element: bd, from: B, to: D, weight: 1.0}
  - {element: cd, from: C, to: D, weight: 1.0}
  - {element: de, from: D, to: E, weight: 1.0}
`

// stack is everything trellisd wires, assembled in-process.
type stack struct {
	doc     *graphdoc.Document
	g       *graph.Graph[string, string]
	reg     *metrics.Registry
	bus     *feed.Bus
	service *query.Service
	server  *httptest.Server
}

func startStack(t *testing.T) *stack {
	t.Helper()

	reg := metrics.NewRegistry()
	bus := feed.NewBus(64, reg)

	doc, err := graphdoc.DecodeYAML([]byte(transitYAML))
	require.NoError(t, err, "Failed to decode document")

	g, err := doc.Build(graph.WithObserver(metrics.Observer[string, string](reg)))
	require.NoError(t, err, "Failed to build graph")
	g.Observe(feed.Hook(g, bus))
	reg.SetGraphSize(g.NumVertices(), g.NumEdges())

	service, err := query.NewService(g, reg)
	require.NoError(t, err, "Failed to create query service")

	server := httptest.NewServer(query.NewHandler(service))
	t.Cleanup(func() {
		server.Close()
		bus.Shutdown()
	})

	return &stack{doc: doc, g: g, reg: reg, bus: bus, service: service, server: server}
}

// postQuery sends one GraphQL request and requires a clean result.
func postQuery(t *testing.T, url, q string, vars map[string]any) map[string]any {
	t.Helper()

	body, err := json.Marshal(query.Request{Query: q, Variables: vars})
	require.NoError(t, err, "Failed to marshal request")

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err, "Failed to POST query")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "Query should return 200")

	var envelope query.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope), "Failed to decode response")
	require.Empty(t, envelope.Errors, "Query should not error")

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok, "Response data should be an object")
	return data
}

func nextEvent(t *testing.T, sub *feed.Subscription, timeout time.Duration) feed.Event {
	t.Helper()

	select {
	case ev, open := <-sub.Events():
		require.True(t, open, "Feed closed early")
		return ev
	case <-time.After(timeout):
		t.Fatal("Timed out waiting for feed event")
		return feed.Event{}
	}
}

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()

	var m dto.Metric
	require.NoError(t, g.Write(&m), "Failed to read metric")
	return m.GetGauge().GetValue()
}

func TestCompleteDocumentWorkflow(t *testing.T) {
	t.Log("Step 1: Round-tripping the document through a file store...")
	docs, err := store.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err, "Failed to open store")

	ctx := context.Background()
	seed, err := graphdoc.DecodeYAML([]byte(transitYAML))
	require.NoError(t, err)
	require.NoError(t, docs.Save(ctx, seed), "Failed to save document")

	loaded, err := docs.Load(ctx, "transit")
	require.NoError(t, err, "Failed to load document")
	assert.Equal(t, seed.Name, loaded.Name)
	assert.Len(t, loaded.Vertices, 5)
	assert.Len(t, loaded.Edges, 5)
	t.Log("  ✓ Document survived the store")

	t.Log("Step 2: Serving the document over GraphQL...")
	st := startStack(t)

	stats := postQuery(t, st.server.URL, `{ stats { vertices edges directed } }`, nil)
	s := stats["stats"].(map[string]any)
	assert.Equal(t, float64(5), s["vertices"])
	assert.Equal(t, float64(5), s["edges"])
	assert.Equal(t, false, s["directed"])
	t.Log("  ✓ Stats match the document")

	t.Log("Step 3: Routing through the shortcut...")
	routed := postQuery(t, st.server.URL,
		`{ shortestPath(source: "A", destination: "E") { distance hops vertices } }`, nil)
	path := routed["shortestPath"].(map[string]any)
	assert.Equal(t, 2.9, path["distance"], "The 0.9 shortcut should win")
	assert.Equal(t, float64(3), path["hops"])
	t.Log("  ✓ Route A-C-D-E at 2.9")

	t.Log("Step 4: Mutating the live graph...")
	sub, err := st.bus.Subscribe(ctx)
	require.NoError(t, err, "Failed to subscribe to feed")
	defer sub.Unsubscribe()

	_, err = st.g.InsertVertex("F")
	require.NoError(t, err, "Failed to insert vertex")
	_, err = st.g.InsertEdgeBetween("E", "F", "ef", graph.WithWeight(1.0))
	require.NoError(t, err, "Failed to insert edge")

	ev := nextEvent(t, sub, time.Second)
	assert.Equal(t, string(graph.OpInsertVertex), ev.Op)
	assert.Equal(t, feed.KindVertex, ev.Kind)
	assert.Equal(t, "F", ev.Label)

	ev = nextEvent(t, sub, time.Second)
	assert.Equal(t, string(graph.OpInsertEdge), ev.Op)
	assert.Equal(t, feed.KindEdge, ev.Kind)
	assert.Equal(t, "ef", ev.Label)
	t.Log("  ✓ Both mutations streamed onto the feed")

	t.Log("Step 5: Querying the mutated graph...")
	stats = postQuery(t, st.server.URL, `{ stats { vertices edges } }`, nil)
	s = stats["stats"].(map[string]any)
	assert.Equal(t, float64(6), s["vertices"])
	assert.Equal(t, float64(6), s["edges"])

	routed = postQuery(t, st.server.URL,
		`{ shortestPath(source: "A", destination: "F") { distance hops } }`, nil)
	path = routed["shortestPath"].(map[string]any)
	assert.Equal(t, 3.9, path["distance"])
	assert.Equal(t, float64(4), path["hops"])
	t.Log("  ✓ New vertex reachable at 3.9")

	t.Log("Step 6: Snapshotting back into the store...")
	snap, err := graphdoc.Snapshot("transit-grown", st.g)
	require.NoError(t, err, "Failed to snapshot graph")
	require.NoError(t, docs.Save(ctx, snap), "Failed to save snapshot")

	names, err := docs.List(ctx)
	require.NoError(t, err, "Failed to list documents")
	assert.Len(t, names, 2)
	assert.Contains(t, names, "transit")
	assert.Contains(t, names, "transit-grown")
	t.Log("  ✓ Store holds the seed and the snapshot")

	t.Log("Step 7: Checking instrumentation...")
	assert.Equal(t, float64(6), gaugeValue(t, st.reg.GraphVerticesTotal))
	assert.Equal(t, float64(6), gaugeValue(t, st.reg.GraphEdgesTotal))

	var m dto.Metric
	require.NoError(t, st.reg.FeedEventsTotal.WithLabelValues(string(graph.OpInsertVertex)).Write(&m))
	assert.Equal(t, float64(1), m.GetCounter().GetValue())
	require.NoError(t, st.reg.QueriesTotal.WithLabelValues("shortestPath", "success").Write(&m))
	assert.GreaterOrEqual(t, m.GetCounter().GetValue(), float64(2))
	t.Log("  ✓ Gauges and counters track the run")
}

func TestBearerTokenProtectsGraph(t *testing.T) {
	st := startStack(t)

	verifier, err := query.NewTokenVerifier("0123456789abcdef0123456789abcdef")
	require.NoError(t, err, "Failed to create verifier")

	guarded := httptest.NewServer(verifier.Middleware(query.NewHandler(st.service)))
	defer guarded.Close()

	body, err := json.Marshal(query.Request{Query: `{ health }`})
	require.NoError(t, err)

	t.Log("Without a token...")
	resp, err := http.Post(guarded.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "Anonymous request should be rejected")

	t.Log("With a forged token...")
	req, err := http.NewRequest(http.MethodPost, guarded.URL, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "Forged token should be rejected")

	t.Log("With an issued token...")
	token, err := verifier.Issue("operator", time.Hour)
	require.NoError(t, err, "Failed to issue token")

	req, err = http.NewRequest(http.MethodPost, guarded.URL, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "Issued token should be accepted")

	var envelope query.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Empty(t, envelope.Errors)
	data := envelope.Data.(map[string]any)
	assert.Equal(t, "ok", data["health"])
}

func TestConcurrentReadersDuringMutation(t *testing.T) {
	st := startStack(t)

	const (
		readers          = 8
		queriesPerReader = 25
		writerInserts    = 50
	)

	var wg sync.WaitGroup
	errs := make(chan error, readers*queriesPerReader+1)

	// Writer grows the graph with costly leaf edges off A. They can never
	// improve the A to E route, so its distance must hold at 2.9 throughout.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writerInserts; i++ {
			station := fmt.Sprintf("w%d", i)
			if _, err := st.g.InsertVertex(station); err != nil {
				errs <- fmt.Errorf("insert vertex %s: %w", station, err)
				return
			}
			if _, err := st.g.InsertEdgeBetween("A", station, "edge-"+station,
				graph.WithWeight(5.0)); err != nil {
				errs <- fmt.Errorf("insert edge to %s: %w", station, err)
				return
			}
		}
	}()

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < queriesPerReader; i++ {
				body, err := json.Marshal(query.Request{
					Query: `{ shortestPath(source: "A", destination: "E") { distance } stats { vertices } }`,
				})
				if err != nil {
					errs <- err
					return
				}
				resp, err := http.Post(st.server.URL, "application/json", bytes.NewReader(body))
				if err != nil {
					errs <- err
					return
				}
				var envelope query.Response
				err = json.NewDecoder(resp.Body).Decode(&envelope)
				resp.Body.Close()
				if err != nil {
					errs <- err
					return
				}
				if len(envelope.Errors) > 0 {
					errs <- fmt.Errorf("query error: %s", envelope.Errors[0].Message)
					return
				}
				data := envelope.Data.(map[string]any)
				path := data["shortestPath"].(map[string]any)
				if path["distance"] != 2.9 {
					errs <- fmt.Errorf("route moved under mutation: %v", path["distance"])
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)

	var failures []error
	for err := range errs {
		failures = append(failures, err)
	}
	require.Empty(t, failures, "Readers and writer should not interfere")

	stats := postQuery(t, st.server.URL, `{ stats { vertices edges } }`, nil)
	s := stats["stats"].(map[string]any)
	assert.Equal(t, float64(5+writerInserts), s["vertices"])
	assert.Equal(t, float64(5+writerInserts), s["edges"])
}

func TestEncryptedStoreServesDocument(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	t.Log("Saving through the cipher store...")
	backend, err := store.NewFileBackend(dir)
	require.NoError(t, err, "Failed to open file backend")
	sealed, err := store.NewCipherStore(backend, "a very long operator passphrase", nil)
	require.NoError(t, err, "Failed to open cipher store")

	doc, err := graphdoc.DecodeYAML([]byte(transitYAML))
	require.NoError(t, err)
	require.NoError(t, sealed.Save(ctx, doc), "Failed to save encrypted document")

	t.Log("Loading with the right passphrase...")
	loaded, err := sealed.Load(ctx, "transit")
	require.NoError(t, err, "Failed to load encrypted document")

	g, err := loaded.Build()
	require.NoError(t, err, "Failed to build graph from decrypted document")
	assert.Equal(t, 5, g.NumVertices())

	service, err := query.NewService(g, metrics.NewRegistry())
	require.NoError(t, err)
	server := httptest.NewServer(query.NewHandler(service))
	defer server.Close()

	data := postQuery(t, server.URL, `{ adjacent(a: "A", b: "B") }`, nil)
	assert.Equal(t, true, data["adjacent"])

	t.Log("Loading with the wrong passphrase...")
	wrongBackend, err := store.NewFileBackend(dir)
	require.NoError(t, err)
	wrong, err := store.NewCipherStore(wrongBackend, "not the operator passphrase!!", nil)
	require.NoError(t, err)
	_, err = wrong.Load(ctx, "transit")
	require.Error(t, err, "Wrong passphrase should not decrypt")
}

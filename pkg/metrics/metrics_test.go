package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/trellis/pkg/graph"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.GraphVerticesTotal == nil {
		t.Error("GraphVerticesTotal not initialized")
	}
	if r.MutationsTotal == nil {
		t.Error("MutationsTotal not initialized")
	}
	if r.SearchDuration == nil {
		t.Error("SearchDuration not initialized")
	}
	if r.StoreOperationsTotal == nil {
		t.Error("StoreOperationsTotal not initialized")
	}
	if r.FeedEventsTotal == nil {
		t.Error("FeedEventsTotal not initialized")
	}
	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordMutation(t *testing.T) {
	r := NewRegistry()

	r.RecordMutation("insert_vertex")
	r.RecordMutation("insert_vertex")
	r.RecordMutation("remove_edge")

	counter, err := r.MutationsTotal.GetMetricWithLabelValues("insert_vertex")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordSearch(t *testing.T) {
	r := NewRegistry()

	r.RecordSearch(SearchFound, 5*time.Millisecond, 3)
	r.RecordSearch(SearchUnreachable, 2*time.Millisecond, 0)

	counter, err := r.SearchesTotal.GetMetricWithLabelValues(SearchFound)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Found counter = %v, want 1", metric.Counter.GetValue())
	}

	if err := r.SearchHops.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("Hops sample count = %v, want 1 (unreachable searches carry no hops)", metric.Histogram.GetSampleCount())
	}

	if err := r.SearchDuration.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("Duration sample count = %v, want 2", metric.Histogram.GetSampleCount())
	}
}

func TestRecordStoreOperation(t *testing.T) {
	r := NewRegistry()

	r.RecordStoreOperation("file", "save", "success", 10*time.Millisecond)
	r.RecordStoreOperation("file", "save", "success", 20*time.Millisecond)
	r.RecordStoreOperation("file", "save", "error", 5*time.Millisecond)

	successCounter, err := r.StoreOperationsTotal.GetMetricWithLabelValues("file", "save", "success")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := successCounter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Success counter = %v, want 2", metric.Counter.GetValue())
	}

	errorCounter, err := r.StoreOperationsTotal.GetMetricWithLabelValues("file", "save", "error")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if err := errorCounter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Error counter = %v, want 1", metric.Counter.GetValue())
	}
}

func TestObserverTracksGraph(t *testing.T) {
	r := NewRegistry()

	g := graph.New[string, string](
		graph.WithObserver(Observer[string, string](r)),
	)

	a, _ := g.InsertVertex("A")
	b, _ := g.InsertVertex("B")
	c, _ := g.InsertVertex("C")
	g.InsertEdge(a, b, "ab")
	g.InsertEdge(b, c, "bc")

	var metric dto.Metric
	if err := r.GraphVerticesTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 3 {
		t.Errorf("Vertex gauge = %v, want 3", metric.Gauge.GetValue())
	}

	if err := r.GraphEdgesTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 2 {
		t.Errorf("Edge gauge = %v, want 2", metric.Gauge.GetValue())
	}

	// Removing B cascades both edges.
	if _, err := g.RemoveVertex(b); err != nil {
		t.Fatalf("Failed to remove vertex: %v", err)
	}

	if err := r.GraphVerticesTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 2 {
		t.Errorf("Vertex gauge after removal = %v, want 2", metric.Gauge.GetValue())
	}

	if err := r.GraphEdgesTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 0 {
		t.Errorf("Edge gauge after cascade = %v, want 0", metric.Gauge.GetValue())
	}

	mutations, err := r.MutationsTotal.GetMetricWithLabelValues("remove_vertex")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if err := mutations.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("remove_vertex counter = %v, want 1", metric.Counter.GetValue())
	}
}

func TestFeedMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordFeedEvent("insert_vertex")
	r.RecordFeedEvent("insert_vertex")
	r.RecordFeedPublish()
	r.RecordFeedDrop()
	r.SetFeedSubscribers(3)

	counter, err := r.FeedEventsTotal.GetMetricWithLabelValues("insert_vertex")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Feed event counter = %v, want 2", metric.Counter.GetValue())
	}

	if err := r.FeedSubscribers.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 3 {
		t.Errorf("Subscriber gauge = %v, want 3", metric.Gauge.GetValue())
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("POST", "/graphql", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/graphql", "200", 200*time.Millisecond)
	r.RecordHTTPRequest("GET", "/healthz", "200", 1*time.Millisecond)

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("POST", "/graphql", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}
}

func TestGaugeMetrics(t *testing.T) {
	r := NewRegistry()

	r.SetGraphSize(100, 500)

	tests := []struct {
		name     string
		gauge    prometheus.Gauge
		expected float64
	}{
		{"GraphVerticesTotal", r.GraphVerticesTotal, 100},
		{"GraphEdgesTotal", r.GraphEdgesTotal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var metric dto.Metric
			if err := tt.gauge.Write(&metric); err != nil {
				t.Fatalf("Failed to write metric: %v", err)
			}

			if metric.Gauge.GetValue() != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, metric.Gauge.GetValue(), tt.expected)
			}
		})
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()

	start := time.Now().Add(-2 * time.Second)
	r.UpdateSystemMetrics(start)

	var metric dto.Metric
	if err := r.UptimeSeconds.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 2 {
		t.Errorf("Uptime = %v, want >= 2", metric.Gauge.GetValue())
	}

	if err := r.GoRoutines.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 1 {
		t.Errorf("GoRoutines = %v, want >= 1", metric.Gauge.GetValue())
	}
}

func TestGetPrometheusRegistry(t *testing.T) {
	r := NewRegistry()
	promRegistry := r.GetPrometheusRegistry()

	if promRegistry == nil {
		t.Fatal("GetPrometheusRegistry() returned nil")
	}

	r.SetGraphSize(1, 1)

	metrics, err := promRegistry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(metrics) == 0 {
		t.Error("No metrics registered")
	}

	metricNames := make(map[string]bool)
	for _, m := range metrics {
		metricNames[m.GetName()] = true
	}

	expected := []string{
		"trellis_graph_vertices_total",
		"trellis_graph_edges_total",
		"trellis_uptime_seconds",
	}
	for _, name := range expected {
		if !metricNames[name] {
			t.Errorf("Expected metric %s not found", name)
		}
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.SetGraphSize(1, 1)
	r.RecordMutation("insert_vertex")
	r.RecordSearch(SearchFound, time.Millisecond, 1)
	r.RecordStoreOperation("mem", "save", "success", time.Millisecond)
	r.RecordFeedEvent("insert_vertex")
	r.RecordHTTPRequest("POST", "/graphql", "200", time.Millisecond)
	r.RecordQuery("shortestPath", "success", time.Millisecond)
	r.UpdateSystemMetrics(time.Now())

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	for _, m := range metrics {
		if !strings.HasPrefix(m.GetName(), "trellis_") {
			t.Errorf("Metric %s does not have trellis_ prefix", m.GetName())
		}
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordMutation("insert_edge")
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	counter, err := r.MutationsTotal.GetMetricWithLabelValues("insert_edge")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1000 {
		t.Errorf("Counter = %v, want 1000", metric.Counter.GetValue())
	}
}

func BenchmarkRecordMutation(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordMutation("insert_edge")
	}
}

func BenchmarkRecordSearch(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordSearch(SearchFound, 5*time.Millisecond, 3)
	}
}

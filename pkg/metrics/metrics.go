package metrics

import (
	"runtime"
	"time"
)

// Search status labels.
const (
	SearchFound       = "found"
	SearchUnreachable = "unreachable"
	SearchError       = "error"
)

// RecordMutation counts one committed graph mutation.
func (r *Registry) RecordMutation(operation string) {
	r.MutationsTotal.WithLabelValues(operation).Inc()
}

// SetGraphSize sets the vertex and edge gauges to absolute values.
func (r *Registry) SetGraphSize(vertices, edges int) {
	r.GraphVerticesTotal.Set(float64(vertices))
	r.GraphEdgesTotal.Set(float64(edges))
}

// RecordSearch records one shortest-path search. Hops is ignored unless the
// search found a route.
func (r *Registry) RecordSearch(status string, duration time.Duration, hops int) {
	r.SearchesTotal.WithLabelValues(status).Inc()
	r.SearchDuration.Observe(duration.Seconds())
	if status == SearchFound {
		r.SearchHops.Observe(float64(hops))
	}
}

// RecordStoreOperation records a snapshot store operation with its duration.
func (r *Registry) RecordStoreOperation(backend, operation, status string, duration time.Duration) {
	r.StoreOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	r.StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// ObserveSnapshotSize records the encoded size of a stored snapshot.
func (r *Registry) ObserveSnapshotSize(backend string, bytes int) {
	r.StoreSnapshotBytes.WithLabelValues(backend).Observe(float64(bytes))
}

// RecordFeedEvent counts one change event entering the feed.
func (r *Registry) RecordFeedEvent(operation string) {
	r.FeedEventsTotal.WithLabelValues(operation).Inc()
}

// RecordFeedPublish counts one event published to the wire.
func (r *Registry) RecordFeedPublish() {
	r.FeedPublishedTotal.Inc()
}

// RecordFeedDrop counts one event dropped by a slow subscriber.
func (r *Registry) RecordFeedDrop() {
	r.FeedDroppedTotal.Inc()
}

// SetFeedSubscribers sets the subscriber gauge.
func (r *Registry) SetFeedSubscribers(n int) {
	r.FeedSubscribers.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request with its duration.
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordQuery records one GraphQL field resolution.
func (r *Registry) RecordQuery(field, status string, duration time.Duration) {
	r.QueriesTotal.WithLabelValues(field, status).Inc()
	r.QueryDuration.WithLabelValues(field).Observe(duration.Seconds())
}

// UpdateSystemMetrics refreshes uptime, goroutine, and heap gauges.
func (r *Registry) UpdateSystemMetrics(start time.Time) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(start).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initFeedMetrics() {
	r.FeedEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trellis_feed_events_total",
			Help: "Total number of change events entering the feed",
		},
		[]string{"operation"},
	)

	r.FeedPublishedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "trellis_feed_published_total",
			Help: "Total number of events published to the wire",
		},
	)

	r.FeedDroppedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "trellis_feed_dropped_total",
			Help: "Total number of events dropped by slow subscribers",
		},
	)

	r.FeedSubscribers = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "trellis_feed_subscribers",
			Help: "Current number of feed subscribers",
		},
	)
}

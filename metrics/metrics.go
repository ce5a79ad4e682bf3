// Package metrics exposes Prometheus metrics for searches, sessions and
// the result cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SearchRequestsTotal counts upstream searches by backend and outcome.
	SearchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidrank_search_requests_total",
		Help: "Upstream search requests, by backend and outcome.",
	}, []string{"backend", "outcome"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidrank_search_duration_seconds",
		Help:    "Upstream search latency in seconds, by backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	// CacheLookupsTotal counts result cache lookups by result (hit, miss).
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidrank_cache_lookups_total",
		Help: "Result cache lookups, by result.",
	}, []string{"result"})

	VideosAnalyzed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vidrank_videos_analyzed",
		Help:    "Videos analyzed per search.",
		Buckets: []float64{0, 5, 10, 20, 50, 100},
	})

	// SessionEventsTotal counts session lifecycle events (committed,
	// superseded, paged, view_changed).
	SessionEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidrank_session_events_total",
		Help: "Session lifecycle events, by event.",
	}, []string{"event"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidrank_active_sessions",
		Help: "Sessions currently held in memory.",
	})
)

// RecordSearch records one upstream search.
func RecordSearch(backend string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SearchRequestsTotal.WithLabelValues(backend, outcome).Inc()
	SearchDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

func RecordAnalyzed(n int) {
	VideosAnalyzed.Observe(float64(n))
}

// RecordSessionEvent increments the counter for event.
func RecordSessionEvent(event string) {
	SessionEventsTotal.WithLabelValues(event).Inc()
}

func SetActiveSessions(n int) {
	ActiveSessions.Set(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

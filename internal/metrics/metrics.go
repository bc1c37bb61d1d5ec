package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	AuthRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Total number of unauthorized requests",
		},
		[]string{"reason"},
	)
	Discoveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glyph_discoveries_total",
			Help: "Discovery attempts by outcome",
		},
		[]string{"outcome"},
	)
	StreakUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streak_updates_total",
			Help: "Streak state transitions",
		},
		[]string{"transition"},
	)
	GlyphCacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glyph_cache_requests_total",
			Help: "Active glyph cache lookups by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AuthRejections,
			Discoveries,
			StreakUpdates,
			GlyphCacheRequests,
		)
	})
}

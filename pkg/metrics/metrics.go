// Package metrics exposes Prometheus instrumentation for the console.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values shared by the counters below.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// UpstreamRequests counts upstream API calls by operation and status class.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docqa_console",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Upstream API requests by operation and status class.",
	}, []string{"op", "status"})

	// UpstreamDuration observes upstream request latency by operation.
	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docqa_console",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Upstream API request duration by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	// TokenRefreshes counts refresh-token exchanges by outcome.
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docqa_console",
		Subsystem: "auth",
		Name:      "token_refreshes_total",
		Help:      "Refresh-token exchanges by outcome.",
	}, []string{"outcome"})

	// ProfileFetches counts profile bootstrap fetches by outcome.
	ProfileFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docqa_console",
		Subsystem: "auth",
		Name:      "profile_fetches_total",
		Help:      "Profile fetches performed during session bootstrap, by outcome.",
	}, []string{"outcome"})

	// CacheFetches counts resource cache fills by resource and outcome.
	CacheFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docqa_console",
		Subsystem: "cache",
		Name:      "fetches_total",
		Help:      "Resource cache fetches by resource and outcome.",
	}, []string{"resource", "outcome"})

	// ConsoleSessions tracks the number of live console sessions.
	ConsoleSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "docqa_console",
		Subsystem: "sessions",
		Name:      "active",
		Help:      "Live console sessions.",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

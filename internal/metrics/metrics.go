// Package metrics provides the centralized Prometheus registry for the
// refresh pipeline.
package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RefreshCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "underdog_edge",
		Name:      "refresh_cycles_total",
		Help:      "Total number of refresh cycles attempted",
	})
	TransportFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "underdog_edge",
		Name:      "transport_failures_total",
		Help:      "Total number of aborted cycles by failing source",
	}, []string{"source"})
	EventsNormalizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "underdog_edge",
		Name:      "events_normalized_total",
		Help:      "Total number of events that survived normalization",
	})
	BookPairsUsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "underdog_edge",
		Name:      "book_pairs_used_total",
		Help:      "Total number of book pairs contributing to fair probabilities",
	})
	PlaceholderPairsDiscardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "underdog_edge",
		Name:      "placeholder_pairs_discarded_total",
		Help:      "Total number of -110/-110 placeholder pairs discarded",
	})
	MalformedPollOddsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "underdog_edge",
		Name:      "malformed_poll_odds_total",
		Help:      "Total number of poll entries whose quoted odds failed to parse",
	})
)

// Gauge metrics
var (
	PollEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "underdog_edge",
		Name:      "poll_entries",
		Help:      "Poll entries in the latest cycle",
	})
	MissingEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "underdog_edge",
		Name:      "missing_entries",
		Help:      "Poll entries without a market probability in the latest cycle",
	})
)

// Histogram metrics
var (
	FeedFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "underdog_edge",
		Name:      "feed_fetch_duration_seconds",
		Help:      "Duration of odds feed fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "underdog_edge",
		Name:      "refresh_cycle_duration_seconds",
		Help:      "End-to-end duration of a refresh cycle in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RefreshCyclesTotal)
		registry.MustRegister(TransportFailuresTotal)
		registry.MustRegister(EventsNormalizedTotal)
		registry.MustRegister(BookPairsUsedTotal)
		registry.MustRegister(PlaceholderPairsDiscardedTotal)
		registry.MustRegister(MalformedPollOddsTotal)

		registry.MustRegister(PollEntries)
		registry.MustRegister(MissingEntries)

		registry.MustRegister(FeedFetchDuration)
		registry.MustRegister(CycleDuration)
	})
	return registry
}

// GetRegistry returns the global registry, initializing it if needed.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns an HTTP handler exposing the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// StartServer serves the metrics endpoint on the given port. Blocking;
// intended to run in its own goroutine.
func StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

// Package metrics provides Prometheus metrics for the oracle system.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OracleReadsTotal is a counter of oracle sample reads.
	OracleReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_reads_total",
			Help: "Total number of oracle sample reads",
		},
		[]string{"oracle", "status"},
	)

	// PathStalenessSeconds is a gauge of the age of the stalest hop of an oracle path.
	PathStalenessSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "path_staleness_seconds",
			Help: "Seconds since the stalest feed on an oracle path was updated",
		},
		[]string{"oracle"},
	)

	// FeedBindings is a gauge of the number of registered feed bindings.
	FeedBindings = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_bindings",
			Help: "Number of registered pairwise feed bindings",
		},
	)

	// AggregatorCallsTotal is a counter of calls made to external aggregators.
	AggregatorCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_calls_total",
			Help: "Total number of calls made to price aggregators",
		},
		[]string{"aggregator", "status"},
	)

	// EventsEmittedTotal is a counter of emitted control-plane events.
	EventsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_emitted_total",
			Help: "Total number of registry and factory events emitted",
		},
		[]string{"kind"},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)
)

// Init initializes Prometheus metrics registry.
func Init() {
	prometheus.MustRegister(
		OracleReadsTotal,
		PathStalenessSeconds,
		FeedBindings,
		AggregatorCallsTotal,
		EventsEmittedTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address and path.
func ServeHTTP(addr, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordOracleRead records a sample read against an oracle.
func RecordOracleRead(oracle, status string) {
	OracleReadsTotal.WithLabelValues(oracle, status).Inc()
}

// RecordPathStaleness records the age of an oracle path given its minimum hop timestamp.
func RecordPathStaleness(oracle string, updatedAt uint64) {
	if updatedAt == 0 {
		return
	}
	// #nosec G115 -- unix seconds fit in int64
	age := time.Since(time.Unix(int64(updatedAt), 0))
	PathStalenessSeconds.WithLabelValues(oracle).Set(age.Seconds())
}

// SetFeedBindings records the current number of feed bindings.
func SetFeedBindings(n int) {
	FeedBindings.Set(float64(n))
}

// RecordAggregatorCall records a call to an external aggregator.
func RecordAggregatorCall(aggregator, status string) {
	AggregatorCallsTotal.WithLabelValues(aggregator, status).Inc()
}

// RecordEvent records an emitted event.
func RecordEvent(kind string) {
	EventsEmittedTotal.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

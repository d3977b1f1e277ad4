// Package metrics exposes Prometheus instrumentation for cinesift.
//
// All collectors live on a private registry so that tests and multiple
// instances never collide on the global default registry. Every method is
// safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cinesift"

// Lookup results of a single candidate
const (
	LookupMatched   = "matched"
	LookupUnmatched = "unmatched"
	LookupFailed    = "failed"
)

type Metrics struct {
	registry          *prometheus.Registry
	discoveries       *prometheus.CounterVec
	discoveryDuration prometheus.Histogram
	lookups           *prometheus.CounterVec
	upstreamRequests  *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		discoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discoveries_total",
			Help:      "Description searches by outcome.",
		}, []string{"outcome"}),
		discoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discovery_duration_seconds",
			Help:      "Time to resolve a description search, completion call included.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_lookups_total",
			Help:      "Per-candidate metadata lookups by result.",
		}, []string{"result"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests to upstream APIs by service and status class.",
		}, []string{"service", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API latency by service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
	}

	m.registry.MustRegister(
		m.discoveries,
		m.discoveryDuration,
		m.lookups,
		m.upstreamRequests,
		m.upstreamDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDiscovery(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.discoveries.WithLabelValues(outcome).Inc()
	m.discoveryDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLookup(result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
}

// ObserveUpstream records one upstream call; status 0 means a transport error.
func (m *Metrics) ObserveUpstream(service string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(service, statusClass(status)).Inc()
	m.upstreamDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

// Package metrics provides Prometheus instrumentation for upstream calls and
// the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upstream services.
const (
	ServiceCatalogGraphQL = "catalog_graphql"
	ServiceCatalogREST    = "catalog_rest"
	ServiceDebrid         = "debrid"
	ServiceTorznab        = "torznab"
	ServiceTMDB           = "tmdb"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	catalogLookups   *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelroute",
			Name:      "upstream_requests_total",
			Help:      "Upstream requests by service and outcome.",
		}, []string{"service", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reelroute",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		catalogLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelroute",
			Name:      "catalog_lookups_total",
			Help:      "Catalog lookups by result (found, not_found, fallback).",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelroute",
			Name:      "http_requests_total",
			Help:      "HTTP API requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reelroute",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.upstreamRequests,
		m.upstreamDuration,
		m.catalogLookups,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one upstream call. outcome is "ok" when err is nil
// and "error" otherwise.
func (m *Metrics) ObserveUpstream(service string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamRequests.WithLabelValues(service, outcome).Inc()
	m.upstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

// CatalogLookup records the outcome of a catalog lookup.
func (m *Metrics) CatalogLookup(result string) {
	if m == nil {
		return
	}
	m.catalogLookups.WithLabelValues(result).Inc()
}

// ObserveHTTP records one API request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

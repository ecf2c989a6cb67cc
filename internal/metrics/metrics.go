// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for API latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus metric collectors for the gateway.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	ForwardDuration  *prometheus.HistogramVec
	ForwardResponses *prometheus.CounterVec
	ForwardRetries   *prometheus.CounterVec
	UpstreamHealthy  *prometheus.GaugeVec

	pathPrefixes []string
}

// New creates a Metrics instance with a custom registry and all collectors
// registered. pathPrefixes bounds the path label cardinality; it should be
// the configured route prefixes plus the reserved gateway paths.
func New(pathPrefixes []string) *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry:     reg,
		pathPrefixes: pathPrefixes,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "task_gateway_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "task_gateway_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "task_gateway_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		ForwardDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "task_gateway_forward_duration_seconds",
			Help:    "Upstream forward latency in seconds, one observation per attempt.",
			Buckets: defaultBuckets,
		}, []string{"service", "method"}),

		ForwardResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "task_gateway_forward_responses_total",
			Help: "Total upstream responses by service, method and status code.",
		}, []string{"service", "method", "status_code"}),

		ForwardRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "task_gateway_forward_retries_total",
			Help: "Total retried forward attempts by service.",
		}, []string{"service"}),

		UpstreamHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "task_gateway_upstream_healthy",
			Help: "1 when the last health probe of the upstream succeeded, else 0.",
		}, []string{"service"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.ForwardDuration,
		m.ForwardResponses,
		m.ForwardRetries,
		m.UpstreamHealthy,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// NormalizePath returns a bounded path label: the first configured prefix
// the path falls under, or "other".
func (m *Metrics) NormalizePath(path string) string {
	for _, prefix := range m.pathPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return prefix
		}
	}
	return "other"
}

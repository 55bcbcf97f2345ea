package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "mr_release"

var histogramBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// Metrics holds the collectors exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	resolveResults   *prometheus.CounterVec
	pipelines        *prometheus.GaugeVec
	upstreamDuration *prometheus.HistogramVec
	rateLimitHits    prometheus.Counter
}

// NewMetrics registers the server collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		resolveResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "resolve_results_total",
			Help:      "Number of deployed-release resolutions by outcome",
		}, []string{"outcome"}),
		pipelines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pipelines",
			Help:      "Pipelines resolved by the last request, by deployment status",
		}, []string{"folder", "environment", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency distribution of release management API calls",
			Buckets:   histogramBuckets,
		}, []string{"code", "method"}),
		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the per-IP rate limiter",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestTotal,
		m.requestDuration,
		m.resolveResults,
		m.pipelines,
		m.upstreamDuration,
		m.rateLimitHits,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InstrumentTransport records the latency of every upstream API call made through next.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperDuration(m.upstreamDuration, next)
}

func (m *Metrics) recordRequest(method, route string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestDuration.With(labels).Observe(duration.Seconds())
}

func (m *Metrics) recordResolve(outcome string) {
	m.resolveResults.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// recordPipelines publishes the per-status pipeline counts of one query. Folder and
// environment labels are normalized so spellings of the same query share a series.
func (m *Metrics) recordPipelines(folder, environment string, counts map[string]int) {
	folder, environment = folderLabel(folder), strings.ToLower(strings.TrimSpace(environment))
	m.pipelines.DeletePartialMatch(prometheus.Labels{"folder": folder, "environment": environment})
	for status, n := range counts {
		m.pipelines.With(prometheus.Labels{
			"folder":      folder,
			"environment": environment,
			"status":      status,
		}).Set(float64(n))
	}
}

// folderLabel turns Team/Web, \team\web and team/web/ into team/web.
func folderLabel(folder string) string {
	folder = strings.ReplaceAll(strings.TrimSpace(folder), `\`, "/")
	return strings.ToLower(strings.Trim(folder, "/"))
}

// Package metrics exposes Prometheus metrics for report generation and the
// HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls metric naming and whether anything is recorded.
type Config struct {
	Enabled   bool
	Namespace string
}

// Collector owns a private registry and the metric vectors registered on it.
//
// Metrics:
//   - <ns>_reports_total: generation attempts by type and status
//   - <ns>_report_duration_seconds: generation duration by type
//   - <ns>_http_requests_total: HTTP requests by method, route and status code
type Collector struct {
	cfg      Config
	registry *prometheus.Registry

	reportsTotal   *prometheus.CounterVec
	reportDuration *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
}

// NewCollector creates the collector. If registry is nil a fresh one is used.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "devsummary"
	}

	c := &Collector{
		cfg:      cfg,
		registry: registry,
		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "reports_total",
				Help:      "Total number of report generation attempts",
			},
			[]string{"type", "status"},
		),
		reportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "report_duration_seconds",
				Help:      "Duration of report generation in seconds",
				// log extraction plus a model round trip
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"type"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "route", "code"},
		),
	}

	registry.MustRegister(c.reportsTotal, c.reportDuration, c.httpRequests)
	return c
}

// ObserveReport records one generation attempt.
func (c *Collector) ObserveReport(reportType, status string, duration time.Duration) {
	if !c.cfg.Enabled {
		return
	}
	c.reportsTotal.WithLabelValues(reportType, status).Inc()
	c.reportDuration.WithLabelValues(reportType).Observe(duration.Seconds())
}

// ObserveHTTP records one served request. route should be the matched
// pattern, not the raw path, to bound cardinality.
func (c *Collector) ObserveHTTP(method, route string, code int) {
	if !c.cfg.Enabled {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// Handler returns the Prometheus exposition endpoint for this collector.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

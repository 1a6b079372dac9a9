package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gomarten/spur"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	// Prefix is added to all metric names (default: "spur").
	Prefix string
	// Buckets for the duration histogram, in seconds.
	Buckets []float64
	// Registry to register with. A new one is created when nil.
	Registry *prometheus.Registry
}

// DefaultMetricsBuckets returns default histogram buckets.
func DefaultMetricsBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
}

var metricsStart = spur.NewKey[time.Time]("spur.metrics.start")

// Metrics counts requests answered by route handlers and observes their
// duration, labelled by method, route pattern and status.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if cfg.Prefix == "" {
		cfg.Prefix = "spur"
	}
	if cfg.Buckets == nil {
		cfg.Buckets = DefaultMetricsBuckets()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	labels := []string{"method", "route", "status"}
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: cfg.Prefix + "_requests_total",
				Help: "Total number of requests answered",
			},
			labels,
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    cfg.Prefix + "_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: cfg.Buckets,
			},
			labels,
		),
		size: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: cfg.Prefix + "_response_bytes_total",
				Help: "Total size of returned response bodies in bytes",
			},
			labels,
		),
	}
	reg.MustRegister(m.requests, m.duration, m.size)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Plug instruments every later-declared route.
func (m *Metrics) Plug(app *spur.App) {
	app.Action(spur.Set(metricsStart, func(*spur.Ctx) time.Time { return time.Now() }))
	app.Defer(func(res *spur.Response, c *spur.Ctx) *spur.Response {
		route := "unmatched"
		if r := c.Route(); r != nil {
			route = r.Path()
		}
		lv := []string{c.Request.Method, route, strconv.Itoa(statusOf(res, c))}
		m.requests.WithLabelValues(lv...).Inc()
		m.duration.WithLabelValues(lv...).Observe(time.Since(metricsStart.Get(c)).Seconds())
		if res != nil {
			m.size.WithLabelValues(lv...).Add(float64(len(res.Body)))
		}
		return nil
	})
}

package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/tela/internal"
)

// unmatchedRoute labels requests that matched no route, keeping label
// cardinality bounded.
const unmatchedRoute = "unmatched"

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	Registry  prometheus.Registerer
	Namespace string
	Buckets   []float64
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithMetricsRegistry sets the registry. Defaults to prometheus.DefaultRegisterer.
func WithMetricsRegistry(reg prometheus.Registerer) MetricsOption {
	return func(cfg *MetricsConfig) {
		if reg != nil {
			cfg.Registry = reg
		}
	}
}

// WithMetricsNamespace sets the metrics namespace. Defaults to "tela".
func WithMetricsNamespace(ns string) MetricsOption {
	return func(cfg *MetricsConfig) {
		cfg.Namespace = ns
	}
}

// WithMetricsBuckets sets the latency histogram buckets.
func WithMetricsBuckets(buckets []float64) MetricsOption {
	return func(cfg *MetricsConfig) {
		if len(buckets) > 0 {
			cfg.Buckets = buckets
		}
	}
}

// Metrics returns middleware that counts controller requests and observes
// their latency, labelled by route pattern, method and status:
//
//   - tela_http_requests_total{route,method,status}
//   - tela_http_request_duration_seconds{route,method}
//   - tela_http_response_size_bytes{route}
//
// Collectors are registered once, when Metrics is called.
func Metrics(opts ...MetricsOption) internal.Middleware {
	cfg := &MetricsConfig{
		Registry:  prometheus.DefaultRegisterer,
		Namespace: "tela",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	factory := promauto.With(cfg.Registry)
	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Controller requests by route, method and status.",
	}, []string{"route", "method", "status"})
	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Controller request latency in seconds.",
		Buckets:   cfg.Buckets,
	}, []string{"route", "method"})
	size := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "Controller response body size in bytes.",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"route"})

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			route := unmatchedRoute
			if rt := c.Route(); rt != nil {
				route = rt.Method + " /" + rt.Pattern
			}
			status := http.StatusOK
			switch {
			case err != nil:
				status = internal.StatusCode(err)
			case c.Written():
				status = c.ResponseWriter().Status()
			}

			method := c.Request().Method
			requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			if rw := c.ResponseWriter(); rw != nil {
				size.WithLabelValues(route).Observe(float64(rw.Size()))
			}
			return err
		}
	}
}

// MetricsHandler serves the metrics gathered by g, for tela.WithMount("/metrics", ...).
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the service
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Application metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Resolver metrics
	ResolveDuration   *prometheus.HistogramVec
	ResolveResultSize *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry so tests and
// multiple containers never collide on registration.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of commands and queries executed",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Command and query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ResolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "friend_resolve_duration_seconds",
				Help:      "Friend degree resolution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"degree"},
		),
		ResolveResultSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "friend_resolve_result_size",
				Help:      "Number of users returned by friend degree resolution",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"degree"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Operations,
		c.OperationDuration,
		c.ResolveDuration,
		c.ResolveResultSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// RecordRequest records one HTTP request
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOperation records one command or query
func (c *Collector) RecordOperation(operation string, success bool, duration time.Duration) {
	c.Operations.WithLabelValues(operation, outcome(success)).Inc()
	c.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordResolve records one friend degree resolution
func (c *Collector) RecordResolve(degree int, resultSize int, duration time.Duration) {
	label := strconv.Itoa(degree)
	c.ResolveDuration.WithLabelValues(label).Observe(duration.Seconds())
	c.ResolveResultSize.WithLabelValues(label).Observe(float64(resultSize))
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// NoopRecorder discards all metrics
type NoopRecorder struct{}

func (NoopRecorder) RecordRequest(string, string, int, time.Duration) {}
func (NoopRecorder) RecordOperation(string, bool, time.Duration)      {}
func (NoopRecorder) RecordResolve(int, int, time.Duration)            {}

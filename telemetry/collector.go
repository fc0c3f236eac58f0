// Package telemetry exposes Prometheus metrics for assembly and HTTP traffic.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sghaida/sept/di"
)

// Collector holds all Prometheus metrics for a sept process.
//
// Each Collector owns its registry, so several can coexist in tests.
// It implements di.Observer.
type Collector struct {
	registry *prometheus.Registry

	// Assembly metrics
	ModulesBuilt  *prometheus.CounterVec
	ModulesReused *prometheus.CounterVec
	Constructions *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

var _ di.Observer = (*Collector)(nil)

// NewCollector creates and registers the metrics under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ModulesBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "modules_built_total",
				Help:      "Modules built during assembly",
			},
			[]string{"module"},
		),
		ModulesReused: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "modules_reused_total",
				Help:      "Imports served from the assembly memo",
			},
			[]string{"module"},
		),
		Constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "capabilities_constructed_total",
				Help:      "Capabilities constructed from their contract",
			},
			[]string{"module", "capability"},
		),
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "module_build_duration_seconds",
				Help:      "Time spent building a module, imports included",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"module"},
		),
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
	}

	c.registry.MustRegister(
		c.ModulesBuilt,
		c.ModulesReused,
		c.Constructions,
		c.BuildDuration,
		c.HTTPRequests,
		c.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's private registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ModuleBuilt implements di.Observer.
func (c *Collector) ModuleBuilt(module string, elapsed time.Duration) {
	c.ModulesBuilt.WithLabelValues(module).Inc()
	c.BuildDuration.WithLabelValues(module).Observe(elapsed.Seconds())
}

// ModuleReused implements di.Observer.
func (c *Collector) ModuleReused(module string) {
	c.ModulesReused.WithLabelValues(module).Inc()
}

// CapabilityConstructed implements di.Observer.
func (c *Collector) CapabilityConstructed(module string, t di.Token) {
	c.Constructions.WithLabelValues(module, t.Name()).Inc()
}

// ObserveHTTP records one served request. route should be the route pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

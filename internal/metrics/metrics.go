package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smilecms"

// Collector owns the application's Prometheus collectors.
type Collector struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	pagesSeeded      *prometheus.CounterVec
	sectionMutations *prometheus.CounterVec
	leadSubmissions  *prometheus.CounterVec
	templateUses     prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		pagesSeeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pages",
			Name:      "seeded_total",
			Help:      "Service pages created from catalog defaults.",
		}, []string{"slug"}),
		sectionMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pages",
			Name:      "mutations_total",
			Help:      "Committed page mutations by operation.",
		}, []string{"op"}),
		leadSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Intake form submissions by source.",
		}, []string{"source"}),
		templateUses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "templates",
			Name:      "uses_total",
			Help:      "Template instantiations.",
		}),
	}

	c.registry.MustRegister(
		c.httpInFlight,
		c.httpRequests,
		c.httpDuration,
		c.pagesSeeded,
		c.sectionMutations,
		c.leadSubmissions,
		c.templateUses,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartRequest marks a request in flight and returns the func that records
// its outcome.
func (c *Collector) StartRequest(method, route string) func(status int) {
	start := time.Now()
	c.httpInFlight.Inc()
	method = strings.ToUpper(method)
	if route == "" {
		route = "unmatched"
	}
	return func(status int) {
		c.httpInFlight.Dec()
		c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// PageSeeded counts a page created from catalog defaults.
func (c *Collector) PageSeeded(slug string) {
	c.pagesSeeded.WithLabelValues(slug).Inc()
}

// SectionMutated counts a committed page mutation.
func (c *Collector) SectionMutated(op string) {
	c.sectionMutations.WithLabelValues(op).Inc()
}

// LeadSubmitted counts an intake form submission.
func (c *Collector) LeadSubmitted(source string) {
	if source == "" {
		source = "unknown"
	}
	c.leadSubmissions.WithLabelValues(source).Inc()
}

// TemplateUsed counts a template instantiation.
func (c *Collector) TemplateUsed() {
	c.templateUses.Inc()
}

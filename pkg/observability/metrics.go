package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Auth metrics
	ResolverOutcomes *prometheus.CounterVec
	GuardDecisions   *prometheus.CounterVec

	// Network metrics
	GraphFallbacks   *prometheus.CounterVec
	GraphFetches     *prometheus.CounterVec
	LayoutRuns       *prometheus.CounterVec
	LayoutIterations prometheus.Histogram

	// Content metrics
	CompletionTokens *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates the metrics collector with the given namespace.
// Repeated calls return the same collector so tests and lambdas that build
// the container twice do not register metrics twice.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

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
		ResolverOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_resolver_outcomes_total",
				Help:      "Session resolver outcomes by kind",
			},
			[]string{"outcome", "reason"},
		),
		GuardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "route_guard_decisions_total",
				Help:      "Route guard decisions by kind",
			},
			[]string{"decision"},
		),
		GraphFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_fallbacks_total",
				Help:      "Network builds served from the mock dataset",
			},
			[]string{"reason"},
		),
		GraphFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_fetches_total",
				Help:      "Graph source fetches by source and status",
			},
			[]string{"source", "status"},
		),
		LayoutRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "layout_runs_total",
				Help:      "Layout simulations by termination reason",
			},
			[]string{"result"},
		),
		LayoutIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "layout_iterations",
				Help:      "Ticks executed per layout simulation",
				Buckets:   []float64{10, 25, 50, 100, 150, 200, 300},
			},
		),
		CompletionTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completion_tokens_total",
				Help:      "Tokens consumed by the completion service",
			},
			[]string{"kind"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ResolverOutcomes,
		c.GuardDecisions,
		c.GraphFallbacks,
		c.GraphFetches,
		c.LayoutRuns,
		c.LayoutIterations,
		c.CompletionTokens,
		c.CacheHits,
		c.CacheMisses,
	)

	globalCollector = c
	return globalCollector
}

// ResetForTesting resets the global collector for testing purposes
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// RecordHTTP records one served request
func (c *Collector) RecordHTTP(method, route, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordResolverOutcome counts a session resolver outcome
func (c *Collector) RecordResolverOutcome(outcome, reason string) {
	if c == nil {
		return
	}
	c.ResolverOutcomes.WithLabelValues(outcome, reason).Inc()
}

// RecordGuardDecision counts a route guard decision
func (c *Collector) RecordGuardDecision(decision string) {
	if c == nil {
		return
	}
	c.GuardDecisions.WithLabelValues(decision).Inc()
}

// RecordGraphFallback counts a build served from the mock dataset
func (c *Collector) RecordGraphFallback(reason string) {
	if c == nil {
		return
	}
	c.GraphFallbacks.WithLabelValues(reason).Inc()
}

// RecordGraphFetch counts a fetch against a graph source
func (c *Collector) RecordGraphFetch(source string, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.GraphFetches.WithLabelValues(source, status).Inc()
}

// RecordLayout records a finished layout simulation
func (c *Collector) RecordLayout(result string, iterations int) {
	if c == nil {
		return
	}
	c.LayoutRuns.WithLabelValues(result).Inc()
	c.LayoutIterations.Observe(float64(iterations))
}

// RecordCompletionUsage adds token usage reported by the completion service
func (c *Collector) RecordCompletionUsage(prompt, completion int64) {
	if c == nil {
		return
	}
	c.CompletionTokens.WithLabelValues("prompt").Add(float64(prompt))
	c.CompletionTokens.WithLabelValues("completion").Add(float64(completion))
}

// RecordCache counts a cache lookup
func (c *Collector) RecordCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.Inc()
		return
	}
	c.CacheMisses.Inc()
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

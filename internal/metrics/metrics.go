// Package metrics exposes Prometheus instruments for the service. Every
// method is safe to call on a nil *Collector so that tests and the CLI can
// run without a registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Completion backend
	Completions        *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	CircuitState       *prometheus.GaugeVec

	// Decomposition
	Expansions         *prometheus.CounterVec
	Decorations        *prometheus.CounterVec
	LiveDecompositions prometheus.Gauge

	// Knowledge cards
	Cards      *prometheus.CounterVec
	CardQueued *prometheus.GaugeVec
	CardActive prometheus.Gauge
}

// NewCollector creates a collector on its own registry.
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
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completions_total",
				Help:      "Completion backend calls by outcome",
			},
			[]string{"provider", "modality", "outcome"},
		),
		CompletionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "completion_duration_seconds",
				Help:      "Completion backend latency in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 90, 120},
			},
			[]string{"provider", "modality"},
		),
		CircuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state per backend (0=closed, 1=half-open, 2=open)",
			},
			[]string{"backend"},
		),
		Expansions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expansions_total",
				Help:      "Node expansion requests by outcome",
			},
			[]string{"outcome"},
		),
		Decorations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decorations_total",
				Help:      "Image decoration lookups by outcome",
			},
			[]string{"outcome"},
		),
		LiveDecompositions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "live_decompositions",
				Help:      "Decompositions currently held in memory",
			},
		),
		Cards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "knowledge_cards_total",
				Help:      "Knowledge card requests by outcome",
			},
			[]string{"outcome"},
		),
		CardQueued: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "knowledge_card_queue_depth",
				Help:      "Card jobs waiting for a worker",
			},
			[]string{"priority"},
		),
		CardActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "knowledge_card_active",
				Help:      "Card jobs currently running",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Completions,
		c.CompletionDuration,
		c.CircuitState,
		c.Expansions,
		c.Decorations,
		c.LiveDecompositions,
		c.Cards,
		c.CardQueued,
		c.CardActive,
	)

	return c
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) ObserveCompletion(provider, modality, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Completions.WithLabelValues(provider, modality, outcome).Inc()
	c.CompletionDuration.WithLabelValues(provider, modality).Observe(d.Seconds())
}

func (c *Collector) SetCircuitState(backend string, state float64) {
	if c == nil {
		return
	}
	c.CircuitState.WithLabelValues(backend).Set(state)
}

func (c *Collector) IncExpansion(outcome string) {
	if c == nil {
		return
	}
	c.Expansions.WithLabelValues(outcome).Inc()
}

func (c *Collector) IncDecoration(outcome string) {
	if c == nil {
		return
	}
	c.Decorations.WithLabelValues(outcome).Inc()
}

func (c *Collector) SetLiveDecompositions(n int) {
	if c == nil {
		return
	}
	c.LiveDecompositions.Set(float64(n))
}

func (c *Collector) IncCard(outcome string) {
	if c == nil {
		return
	}
	c.Cards.WithLabelValues(outcome).Inc()
}

func (c *Collector) SetCardQueue(high, low, active int) {
	if c == nil {
		return
	}
	c.CardQueued.WithLabelValues("high").Set(float64(high))
	c.CardQueued.WithLabelValues("low").Set(float64(low))
	c.CardActive.Set(float64(active))
}

// Package metrics exposes Prometheus instrumentation for the chat pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matchchat"

// Manager owns every collector. A nil *Manager is valid and records nothing.
type Manager struct {
	registry *prometheus.Registry

	cacheLookups   *prometheus.CounterVec
	providerCalls  *prometheus.CounterVec
	generation     *prometheus.HistogramVec
	searchRequests *prometheus.CounterVec
	asks           *prometheus.CounterVec
	contextTokens  prometheus.Histogram
	sessions       prometheus.Gauge
}

func New() *Manager {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Manager{
		registry: reg,
		cacheLookups: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_cache_lookups_total",
			Help:      "Match dataset cache lookups by result (hit, miss, l2_hit).",
		}, []string{"result"}),
		providerCalls: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Data provider requests by resource and outcome.",
		}, []string{"resource", "outcome"}),
		generation: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Language model call latency by outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"outcome"}),
		searchRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Web search requests by outcome (ok, empty, error, disabled).",
		}, []string{"outcome"}),
		asks: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asks_total",
			Help:      "Questions answered by outcome kind.",
		}, []string{"outcome"}),
		contextTokens: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "context_tokens",
			Help:      "Tokens of structured context placed in a prompt.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
		}),
		sessions: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory.",
		}),
	}
}

func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Manager) ProviderRequest(resource, outcome string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(resource, outcome).Inc()
}

func (m *Manager) ObserveGeneration(d time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.generation.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Manager) SearchRequest(outcome string) {
	if m == nil {
		return
	}
	m.searchRequests.WithLabelValues(outcome).Inc()
}

func (m *Manager) Ask(outcome string) {
	if m == nil {
		return
	}
	m.asks.WithLabelValues(outcome).Inc()
}

func (m *Manager) ContextTokens(n int) {
	if m == nil {
		return
	}
	m.contextTokens.Observe(float64(n))
}

func (m *Manager) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// Package observability provides custom Prometheus metrics for the logo
// resolution service.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// LogoResolverMetrics contains all Prometheus metrics related to logo
// resolution operations.
type LogoResolverMetrics struct {
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	Probes        *prometheus.CounterVec // by outcome: success, failure
	Resolutions   *prometheus.CounterVec // by strategy tag
	ProbeDuration prometheus.Histogram
	registry      *prometheus.Registry
}

// NewLogoResolverMetrics creates a new LogoResolverMetrics instance and
// registers its collectors with the given registry.
func NewLogoResolverMetrics(registry *prometheus.Registry) (*LogoResolverMetrics, error) {
	m := &LogoResolverMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register logo resolver metrics: %w", err)
	}
	return m, nil
}

func (m *LogoResolverMetrics) initMetrics() {
	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logo_resolver_cache_hits_total",
		Help: "Total number of resolution cache hits.",
	})

	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logo_resolver_cache_misses_total",
		Help: "Total number of resolution cache misses.",
	})

	m.Probes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logo_resolver_probes_total",
		Help: "Total number of candidate probes by outcome.",
	}, []string{"outcome"})

	m.Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logo_resolver_resolutions_total",
		Help: "Total number of completed resolutions by strategy.",
	}, []string{"strategy"})

	m.ProbeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "logo_resolver_probe_duration_seconds",
		Help:    "Duration of candidate probes in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})
}

// Describe implements the prometheus.Collector interface.
func (m *LogoResolverMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.CacheHits.Describe(ch)
	m.CacheMisses.Describe(ch)
	m.Probes.Describe(ch)
	m.Resolutions.Describe(ch)
	m.ProbeDuration.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *LogoResolverMetrics) Collect(ch chan<- prometheus.Metric) {
	m.CacheHits.Collect(ch)
	m.CacheMisses.Collect(ch)
	m.Probes.Collect(ch)
	m.Resolutions.Collect(ch)
	m.ProbeDuration.Collect(ch)
}

// IncrementCacheHits increases the cache hit counter by one.
func (m *LogoResolverMetrics) IncrementCacheHits() {
	m.CacheHits.Inc()
}

// IncrementCacheMisses increases the cache miss counter by one.
func (m *LogoResolverMetrics) IncrementCacheMisses() {
	m.CacheMisses.Inc()
}

// IncrementProbes records one probe with the given outcome.
func (m *LogoResolverMetrics) IncrementProbes(outcome string) {
	m.Probes.WithLabelValues(outcome).Inc()
}

// IncrementResolutions records one completed resolution for a strategy.
func (m *LogoResolverMetrics) IncrementResolutions(strategy string) {
	m.Resolutions.WithLabelValues(strategy).Inc()
}

// ObserveProbeDuration records the duration of a single probe.
func (m *LogoResolverMetrics) ObserveProbeDuration(seconds float64) {
	m.ProbeDuration.Observe(seconds)
}

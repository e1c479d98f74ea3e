// Package metrics exposes Prometheus collectors for the statistics pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "repo_event_stats_"

// Fetch outcomes.
const (
	FetchEvents = "events"
	FetchEmpty  = "empty"
	FetchError  = "error"
)

// Metrics groups the pipeline's collectors. A nil *Metrics records nothing.
type Metrics struct {
	fetches        *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	computeSeconds prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "fetch_total",
			Help: "Event feed fetches by outcome",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "cache_lookups_total",
			Help: "Statistics cache lookups by result",
		}, []string{"result"}),
		computeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "compute_seconds",
			Help:    "Time spent fetching and computing statistics for one repository",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.fetches, m.cacheLookups, m.computeSeconds)
	return m
}

// ObserveFetch counts a fetch with the given outcome.
func (m *Metrics) ObserveFetch(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}

// ObserveCacheLookup counts a cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCompute records how long a cache miss took to resolve.
func (m *Metrics) ObserveCompute(d time.Duration) {
	if m == nil {
		return
	}
	m.computeSeconds.Observe(d.Seconds())
}

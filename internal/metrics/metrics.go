// Package metrics exposes Prometheus collectors for the yield and rebalancing
// services. A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rebalancer"

// Recorder holds the collectors registered on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	yieldFetches   *prometheus.CounterVec
	yieldFallbacks *prometheus.CounterVec
	lastAPY        *prometheus.GaugeVec
	cacheLookups   *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
	analyses       *prometheus.CounterVec
	dismissals     prometheus.Counter
	storeErrors    *prometheus.CounterVec
	jobRuns        *prometheus.CounterVec
}

// New creates a recorder backed by a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		yieldFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "yield_fetches_total",
				Help:      "Yield reads per strategy and data source",
			},
			[]string{"strategy", "source"},
		),
		yieldFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "yield_fallbacks_total",
				Help:      "Live yield fetches that failed and fell back to mock data",
			},
			[]string{"strategy"},
		),
		lastAPY: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "strategy_apy_percent",
				Help:      "Most recently fetched APY per strategy",
			},
			[]string{"strategy"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "yield_cache_lookups_total",
				Help:      "Snapshot cache lookups by result",
			},
			[]string{"result"},
		),
		fetchLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "yield_fetch_duration_seconds",
				Help:      "Duration of a full concurrent yield refresh",
				Buckets:   prometheus.DefBuckets,
			},
		),
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rebalance_analyses_total",
				Help:      "Rebalance analyses by verdict",
			},
			[]string{"should_rebalance"},
		),
		dismissals: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "suggestions_dismissed_total",
				Help:      "Suggestions dismissed by users",
			},
		),
		storeErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Key-value store failures by operation",
			},
			[]string{"op"},
		),
		jobRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Scheduled job runs by job and outcome",
			},
			[]string{"job", "outcome"},
		),
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordYield records a yield read and the APY it returned.
func (r *Recorder) RecordYield(strategy, source string, apy float64) {
	if r == nil {
		return
	}
	r.yieldFetches.WithLabelValues(strategy, source).Inc()
	r.lastAPY.WithLabelValues(strategy).Set(apy)
}

// RecordFallback records a live fetch that degraded to mock data.
func (r *Recorder) RecordFallback(strategy string) {
	if r == nil {
		return
	}
	r.yieldFallbacks.WithLabelValues(strategy).Inc()
}

// RecordCacheLookup records a snapshot cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordFetchDuration records how long a full refresh took.
func (r *Recorder) RecordFetchDuration(seconds float64) {
	if r == nil {
		return
	}
	r.fetchLatency.Observe(seconds)
}

// RecordAnalysis records the verdict of a rebalance analysis.
func (r *Recorder) RecordAnalysis(shouldRebalance bool) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(strconv.FormatBool(shouldRebalance)).Inc()
}

// RecordDismissal records a dismissed suggestion.
func (r *Recorder) RecordDismissal() {
	if r == nil {
		return
	}
	r.dismissals.Inc()
}

// RecordStoreError records a failed store operation.
func (r *Recorder) RecordStoreError(op string) {
	if r == nil {
		return
	}
	r.storeErrors.WithLabelValues(op).Inc()
}

// RecordJobRun records the outcome of a scheduled job.
func (r *Recorder) RecordJobRun(job string, err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.jobRuns.WithLabelValues(job, outcome).Inc()
}

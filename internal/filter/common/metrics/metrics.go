// Package metrics records classification and rule-loading metrics with
// Prometheus on a private registry.
//
// Metrics:
//   - s1filter_decisions_total: decisions by outcome and rule_id
//   - s1filter_classify_duration_seconds: time spent per classification
//   - s1filter_rules_active: active rules per list after the last load
//   - s1filter_rule_load_failures_total: records dropped at load time per list
//   - s1filter_cache_lookups_total: decision cache lookups by result
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haukened/s1-filter/internal/filter/domain"
)

const namespace = "s1filter"

// Recorder implements classifier.Metrics with Prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry

	decisions    *prometheus.CounterVec
	duration     prometheus.Histogram
	rulesActive  *prometheus.GaugeVec
	loadFailures *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them on a new registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Total number of first-stage decisions by outcome and matched rule",
			},
			[]string{"outcome", "rule_id"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "classify_duration_seconds",
				Help:      "Duration of a single classification in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
		),
		rulesActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rules_active",
				Help:      "Number of active rules per list",
			},
			[]string{"list"},
		),
		loadFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_load_failures_total",
				Help:      "Total number of rule records dropped at load time",
			},
			[]string{"list"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of decision cache lookups by result",
			},
			[]string{"result"},
		),
	}

	r.registry.MustRegister(
		r.decisions,
		r.duration,
		r.rulesActive,
		r.loadFailures,
		r.cacheLookups,
	)
	return r
}

// ObserveDecision counts d and records how long it took.
func (r *Recorder) ObserveDecision(d domain.Decision, elapsed time.Duration) {
	r.decisions.WithLabelValues(d.Outcome.String(), d.RuleID).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// ObserveCacheLookup counts a cache hit or miss.
func (r *Recorder) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// SetActiveRules sets the active rule gauge for list.
func (r *Recorder) SetActiveRules(list domain.List, n int) {
	r.rulesActive.WithLabelValues(list.String()).Set(float64(n))
}

// AddRuleLoadFailures adds n dropped records for list.
func (r *Recorder) AddRuleLoadFailures(list domain.List, n int) {
	if n <= 0 {
		return
	}
	r.loadFailures.WithLabelValues(list.String()).Add(float64(n))
}

// Registry exposes the private registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

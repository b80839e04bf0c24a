// Package metrics exposes Prometheus collectors for the analysis pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "deck_analyst"

// Metrics groups the pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	cardLookups        *prometheus.CounterVec
	cardFetches        *prometheus.CounterVec
	contextCache       *prometheus.CounterVec
	generationAttempts *prometheus.CounterVec
	generationDuration prometheus.Histogram
	retries            prometheus.Histogram
	validationErrors   prometheus.Counter
	antiSynergies      *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		cardLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "card_lookups_total",
			Help:      "Card fact lookups by serving tier and result.",
		}, []string{"tier", "result"}),
		cardFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "card_source_requests_total",
			Help:      "Requests made to the external card source.",
		}, []string{"kind", "outcome"}),
		contextCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_cache_total",
			Help:      "Inferred context cache hits and misses.",
		}, []string{"result"}),
		generationAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_attempts_total",
			Help:      "Analysis generation attempts by outcome.",
		}, []string{"outcome"}),
		generationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of a single generation call.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		retries: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_retries",
			Help:      "Retries needed per validated analysis.",
			Buckets:   []float64{0, 1, 2, 3},
		}),
		validationErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Validation errors found in generated analyses.",
		}),
		antiSynergies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anti_synergies_total",
			Help:      "Anti-synergy findings by severity.",
		}, []string{"severity"}),
	}
}

// CardLookup counts a resolver lookup served by tier (memory, store, source).
func (m *Metrics) CardLookup(tier, result string) {
	if m == nil {
		return
	}
	m.cardLookups.WithLabelValues(tier, result).Inc()
}

// CardFetch counts a request to the card source (named, collection).
func (m *Metrics) CardFetch(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.cardFetches.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ContextCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.contextCache.WithLabelValues(result).Inc()
}

// GenerationAttempt records one generator call.
func (m *Metrics) GenerationAttempt(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generationAttempts.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(d.Seconds())
}

func (m *Metrics) Retries(n int) {
	if m == nil {
		return
	}
	m.retries.Observe(float64(n))
}

func (m *Metrics) ValidationErrors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.validationErrors.Add(float64(n))
}

func (m *Metrics) AntiSynergy(severity string) {
	if m == nil {
		return
	}
	m.antiSynergies.WithLabelValues(severity).Inc()
}

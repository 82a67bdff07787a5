package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes recorded in RunsTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeFailure  = "failure"
)

// Metrics holds the Prometheus collectors for forecasting runs
type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	FitsTotal      *prometheus.CounterVec
	FallbacksTotal prometheus.Counter
	CacheTotal     *prometheus.CounterVec
	FitDuration    prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg
// registers nothing, which suits tests and one-shot CLI runs.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steelcast_runs_total",
				Help: "Cost comparison runs by outcome",
			},
			[]string{"outcome"},
		),
		FitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steelcast_forecast_fits_total",
				Help: "SARIMA fits by outcome (ok, not_converged)",
			},
			[]string{"outcome"},
		),
		FallbacksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "steelcast_forecast_fallbacks_total",
			Help: "Runs that priced scrap at the fallback price",
		}),
		CacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steelcast_forecast_cache_total",
				Help: "Forecast cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		FitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "steelcast_fit_duration_seconds",
			Help:    "Wall time spent producing a forecast",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeFallback {
		m.FallbacksTotal.Inc()
	}
}

// ObserveFit records one forecast attempt and its duration.
func (m *Metrics) ObserveFit(ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "not_converged"
	}
	m.FitsTotal.WithLabelValues(outcome).Inc()
	m.FitDuration.Observe(elapsed.Seconds())
}

// ObserveCache records a forecast cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheTotal.WithLabelValues(result).Inc()
}

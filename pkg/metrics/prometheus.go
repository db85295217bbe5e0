package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"SignalDesk/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions   *prometheus.CounterVec
	forecasts   *prometheus.CounterVec
	fitFailures *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_consensus_decisions_total",
				Help: "Consensus decisions by recommendation and fallback use",
			},
			[]string{"recommendation", "fallback"},
		),
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_forecasts_total",
				Help: "Forecasts produced by selected regime and fallback use",
			},
			[]string{"regime", "fallback"},
		),
		fitFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_regime_fit_failures_total",
				Help: "Regime models that could not be fitted",
			},
			[]string{"regime"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordDecision counts a consensus verdict.
func (r *Recorder) RecordDecision(rec models.Recommendation, fallback bool) {
	r.decisions.WithLabelValues(string(rec), strconv.FormatBool(fallback)).Inc()
}

// RecordForecast counts a produced forecast.
func (r *Recorder) RecordForecast(regime string, fallback bool) {
	r.forecasts.WithLabelValues(regime, strconv.FormatBool(fallback)).Inc()
}

// RecordFitFailure counts a regime whose model was unavailable.
func (r *Recorder) RecordFitFailure(regime string) {
	r.fitFailures.WithLabelValues(regime).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

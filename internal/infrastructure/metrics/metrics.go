package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fraud_scoring"

// Metrics holds the service's Prometheus collectors.
// All methods are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	decisions       *prometheus.CounterVec
	scoreDuration   prometheus.Histogram
	probability     prometheus.Histogram
	fallbacks       *prometheus.CounterVec
	alerts          *prometheus.CounterVec
	scoringErrors   *prometheus.CounterVec
	anomalyFindings prometheus.Counter
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Scoring decisions by outcome and review status.",
		}, []string{"decision", "review_status"}),
		scoreDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_duration_seconds",
			Help:      "End-to-end latency of a scoring call.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		probability: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fraud_probability",
			Help:      "Distribution of final fraud probabilities.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Sub-model and sub-score computations replaced by their neutral default.",
		}, []string{"component", "name"}),
		alerts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts handed to the alert bus.",
		}, []string{"type", "severity", "result"}),
		scoringErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_errors_total",
			Help:      "Scoring calls that failed without a decision.",
		}, []string{"stage"}),
		anomalyFindings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hourly_anomaly_findings_total",
			Help:      "Findings raised by the hourly anomaly scan.",
		}),
	}
}

func (m *Metrics) ObserveDecision(decision, reviewStatus string, probability float64, took time.Duration) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision, reviewStatus).Inc()
	m.probability.Observe(probability)
	m.scoreDuration.Observe(took.Seconds())
}

// Fallback counts a neutral-default substitution
func (m *Metrics) Fallback(component, name string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(component, name).Inc()
}

func (m *Metrics) Alert(alertType, severity string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.alerts.WithLabelValues(alertType, severity, result).Inc()
}

func (m *Metrics) ScoringError(stage string) {
	if m == nil {
		return
	}
	m.scoringErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) AnomalyFindings(n int) {
	if m == nil {
		return
	}
	m.anomalyFindings.Add(float64(n))
}

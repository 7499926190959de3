package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the study workflow. Methods are nil-safe.
type Metrics struct {
	transitions *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	riskCache   *prometheus.CounterVec
	riskScore   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "steward_study_transitions_total",
			Help: "Workflow transition attempts by event and outcome (ok or guard reason)",
		}, []string{"event", "outcome"}),
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "steward_study_transition_conflicts_total",
			Help: "Transitions refused because the study changed underneath the caller",
		}, []string{"event"}),
		riskCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "steward_study_risk_cache_total",
			Help: "Risk cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		riskScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "steward_study_risk_score",
			Help:    "Distribution of computed risk scores",
			Buckets: []float64{0, 5, 10, 15, 20, 25, 30},
		}),
	}
}

func (m *Metrics) IncTransition(event, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) IncConflict(event string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(event).Inc()
}

func (m *Metrics) IncRiskCache(result string) {
	if m == nil {
		return
	}
	m.riskCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRiskScore(score int) {
	if m == nil {
		return
	}
	m.riskScore.Observe(float64(score))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for training submissions and validity reads. Methods are nil-safe.
type Metrics struct {
	submissions *prometheus.CounterVec
	evaluations *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "steward_training_submissions_total",
			Help: "Training completions submitted, by kind",
		}, []string{"kind"}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "steward_training_evaluations_total",
			Help: "Training validity evaluations, by resulting state and urgency",
		}, []string{"state", "urgency"}),
	}
}

func (m *Metrics) IncSubmission(kind string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncEvaluation(state, urgency string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(state, urgency).Inc()
}

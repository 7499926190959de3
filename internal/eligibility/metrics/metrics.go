package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for eligibility evaluation. Methods are nil-safe.
type Metrics struct {
	evaluations     *prometheus.CounterVec
	factLatency     *prometheus.HistogramVec
	unresolved      prometheus.Counter
	guardViolations prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "steward_eligibility_evaluations_total",
			Help: "Eligibility evaluations by outcome and current step",
		}, []string{"approved", "current_step"}),
		factLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "steward_eligibility_fact_duration_seconds",
			Help:    "Duration of fetching each eligibility fact",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"source"}),
		unresolved: f.NewCounter(prometheus.CounterOpts{
			Name: "steward_eligibility_unresolved_agreement_total",
			Help: "Evaluations where the current approved-researcher agreement could not be resolved",
		}),
		guardViolations: f.NewCounter(prometheus.CounterOpts{
			Name: "steward_eligibility_guard_violations_total",
			Help: "Actions refused because the actor is not an approved researcher",
		}),
	}
}

func (m *Metrics) IncEvaluation(approved bool, currentStep string) {
	if m == nil {
		return
	}
	label := "false"
	if approved {
		label = "true"
	}
	m.evaluations.WithLabelValues(label, currentStep).Inc()
}

func (m *Metrics) ObserveFactLatency(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.factLatency.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) IncUnresolvedAgreement() {
	if m == nil {
		return
	}
	m.unresolved.Inc()
}

func (m *Metrics) IncGuardViolation() {
	if m == nil {
		return
	}
	m.guardViolations.Inc()
}

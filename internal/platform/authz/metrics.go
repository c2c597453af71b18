package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts verdicts and times evaluations. A nil *Metrics records nothing.
type Metrics struct {
	decisions *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics registers the authorization metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "healthgateway",
				Name:      "authz_decisions_total",
				Help:      "Authorization verdicts by requirement and outcome",
			},
			[]string{"requirement", "verdict"},
		),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "healthgateway",
			Name:      "authz_evaluation_seconds",
			Help:      "Time spent evaluating one authorization ledger",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
	}
}

func (m *Metrics) observe(r Requirement, v Verdict) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(r.String(), v.String()).Inc()
}

func (m *Metrics) observeDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

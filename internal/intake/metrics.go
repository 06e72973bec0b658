package intake

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts gate outcomes.
type Metrics struct {
	outcomes *prometheus.CounterVec
}

// NewMetrics registers the intake counters on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_intake_total",
				Help: "Upload intake decisions by outcome.",
			},
			[]string{"outcome"},
		),
	}
	if err := reg.Register(m.outcomes); err != nil {
		return nil, err
	}
	return m, nil
}

// Observe records one outcome. A nil receiver is a no-op.
func (m *Metrics) Observe(o Outcome) {
	if m == nil {
		return
	}
	label := "accepted"
	if !o.Accepted {
		label = string(o.Reason)
	}
	m.outcomes.WithLabelValues(label).Inc()
}

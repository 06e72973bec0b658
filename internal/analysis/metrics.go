package analysis

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks runner activity.
type Metrics struct {
	finished *prometheus.CounterVec
	inFlight prometheus.Gauge
	duration prometheus.Histogram
}

// NewMetrics registers the runner metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		finished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_jobs_total",
				Help: "Analysis jobs by terminal status.",
			},
			[]string{"status"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analysis_jobs_in_flight",
			Help: "Analysis jobs currently being executed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analysis_job_duration_seconds",
			Help:    "Time spent executing analysis jobs.",
			Buckets: []float64{0.1, 0.5, 1, 2, 3, 5, 10, 30, 60},
		}),
	}
	for _, c := range []prometheus.Collector{m.finished, m.inFlight, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) started() {
	if m != nil {
		m.inFlight.Inc()
	}
}

func (m *Metrics) stopped(seconds float64) {
	if m != nil {
		m.inFlight.Dec()
		m.duration.Observe(seconds)
	}
}

func (m *Metrics) finish(status string) {
	if m != nil {
		m.finished.WithLabelValues(status).Inc()
	}
}

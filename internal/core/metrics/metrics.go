package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of the client core.
type Metrics struct {
	wizardTransitions *prometheus.CounterVec
	backendCalls      *prometheus.HistogramVec
	openWizards       prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		wizardTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Wizard actions by flow, action and outcome.",
		}, []string{"flow", "action", "outcome"}),
		backendCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invest",
			Subsystem: "backend",
			Name:      "call_duration_seconds",
			Help:      "Latency of backend API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "outcome"}),
		openWizards: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "invest",
			Subsystem: "wizard",
			Name:      "open",
			Help:      "Wizards currently held in memory.",
		}),
	}
	reg.MustRegister(m.wizardTransitions, m.backendCalls, m.openWizards)
	return m
}

func (m *Metrics) Transition(flow, action, outcome string) {
	m.wizardTransitions.WithLabelValues(flow, action, outcome).Inc()
}

func (m *Metrics) ObserveCall(endpoint, outcome string, elapsed time.Duration) {
	m.backendCalls.WithLabelValues(endpoint, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) SetOpenWizards(n int) {
	m.openWizards.Set(float64(n))
}

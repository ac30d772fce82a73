package sipcore

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the dialog-layer counters, distinct from sip.Metrics'
// codec-layer (parse/frame) counters.
type Metrics struct {
	DialogTransitions *prometheus.CounterVec
	ByeSent           prometheus.Counter
	ByeFailures       prometheus.Counter
}

// NewMetrics constructs and registers-ready (but unregistered) dialog
// metrics under the given namespace; call Collectors() to register them
// with a prometheus.Registerer.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		DialogTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialog",
			Name:      "state_transitions_total",
			Help:      "Dialog state machine transitions, labeled by from/to state.",
		}, []string{"from", "to"}),
		ByeSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialog",
			Name:      "bye_sent_total",
			Help:      "BYE requests successfully handed to the transport.",
		}),
		ByeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialog",
			Name:      "bye_failures_total",
			Help:      "BYE requests that failed to build or send.",
		}),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.DialogTransitions, m.ByeSent, m.ByeFailures}
}

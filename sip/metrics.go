package sip

import "github.com/prometheus/client_golang/prometheus"

// Metrics are optional prometheus instrumentation for the codec layer.
// A zero-value Metrics holds nil counters; construct one with NewMetrics
// and register its Collectors() to export the counts.
type Metrics struct {
	ParseErrors     prometheus.Counter
	FramerRejects   *prometheus.CounterVec
	HeaderSkips     prometheus.Counter
}

// NewMetrics builds a Metrics ready to be registered with a
// prometheus.Registerer.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sip",
			Name:      "parse_errors_total",
			Help:      "SIP messages rejected by ParseSIP.",
		}),
		FramerRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sip",
			Name:      "framer_rejects_total",
			Help:      "Buffers rejected by Frame, labeled by reason.",
		}, []string{"reason"}),
		HeaderSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sip",
			Name:      "header_parse_skips_total",
			Help:      "Individual headers that fell back to GenericHeader due to a parse error.",
		}),
	}
}

// Collectors returns every metric for registration with a
// prometheus.Registerer.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.ParseErrors, m.FramerRejects, m.HeaderSkips}
}

package ralink

import (
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"
)

// Sources of malformed driver input.
const (
	sourceNetlink  = "netlink"
	sourceWireless = "wireless"
	sourceCustom   = "custom"
	sourcePMKID    = "pmkid_candidate"
	sourceScan     = "scan"
)

// metrics are the counters exported by a Client.
type metrics struct {
	events    *prometheus.CounterVec
	malformed *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ralink",
				Name:      "events_total",
				Help:      "Total number of driver events delivered to the supplicant",
			},
			[]string{"kind"},
		),
		malformed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ralink",
				Name:      "malformed_input_total",
				Help:      "Total number of malformed driver messages or records dropped",
			},
			[]string{"source"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ralink",
				Name:      "control_failures_total",
				Help:      "Total number of failed control channel operations",
			},
			[]string{"op"},
		),
	}

	if reg == nil {
		return m
	}

	for _, c := range []prometheus.Collector{m.events, m.malformed, m.failures} {
		if err := reg.Register(c); err != nil {
			// Registration is best effort; a second Client on the same
			// registry keeps working with unexported counters.
			klog.Warningf("ralink: failed to register metrics: %v", err)
		}
	}

	return m
}

func (m *metrics) event(k EventKind) {
	m.events.WithLabelValues(k.String()).Inc()
}

func (m *metrics) malformedInput(source string) {
	m.malformed.WithLabelValues(source).Inc()
}

func (m *metrics) controlFailure(op string) {
	m.failures.WithLabelValues(op).Inc()
}

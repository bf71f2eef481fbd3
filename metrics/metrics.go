// Package metrics exposes dvrd's operational counters as Prometheus
// instruments. This is a pure ops surface additive to the textual
// routing-table dump — it is never consulted by the routing logic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kpeters/dvrd/counter"
)

// Metrics bundles the counters the engine increments as it runs. Each field mirrors into a prometheus.Counter/Gauge so the
// daemon can be scraped, while counter.Counter keeps a plain
// in-process accumulator alongside it.
type Metrics struct {
	RoutesActive      *counter.Counter
	PacketsSent       *counter.Counter
	PacketsReceived   *counter.Counter
	PacketsDropped    *counter.Counter
	TriggeredUpdates  *counter.Counter

	routesActiveGauge     prometheus.Gauge
	packetsSentCounter    prometheus.Counter
	packetsRecvCounter    prometheus.Counter
	packetsDroppedCounter prometheus.Counter
	triggeredCounter      prometheus.Counter
}

// New creates a Metrics bundle and registers its Prometheus
// instruments against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoutesActive:     counter.New(),
		PacketsSent:      counter.New(),
		PacketsReceived:  counter.New(),
		PacketsDropped:   counter.New(),
		TriggeredUpdates: counter.New(),

		routesActiveGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dvrd",
			Name:      "routes_active",
			Help:      "Number of routes currently in the table, garbage routes included.",
		}),
		packetsSentCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dvrd",
			Name:      "packets_sent_total",
			Help:      "Response messages sent to neighbors.",
		}),
		packetsRecvCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dvrd",
			Name:      "packets_received_total",
			Help:      "Response messages received from neighbors.",
		}),
		packetsDroppedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dvrd",
			Name:      "packets_dropped_total",
			Help:      "Inbound packets discarded as malformed, invalid, or from an unknown source.",
		}),
		triggeredCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dvrd",
			Name:      "triggered_updates_total",
			Help:      "Triggered-update cycles sent after routes became unreachable.",
		}),
	}

	reg.MustRegister(
		m.routesActiveGauge,
		m.packetsSentCounter,
		m.packetsRecvCounter,
		m.packetsDroppedCounter,
		m.triggeredCounter,
	)
	return m
}

// SetRoutesActive records the current table size.
func (m *Metrics) SetRoutesActive(n int) {
	m.RoutesActive.Reset()
	for i := 0; i < n; i++ {
		m.RoutesActive.Increment()
	}
	m.routesActiveGauge.Set(float64(n))
}

// IncPacketsSent records one outbound response message.
func (m *Metrics) IncPacketsSent() {
	m.PacketsSent.Increment()
	m.packetsSentCounter.Inc()
}

// IncPacketsReceived records one inbound response message that decoded
// and passed validation.
func (m *Metrics) IncPacketsReceived() {
	m.PacketsReceived.Increment()
	m.packetsRecvCounter.Inc()
}

// IncPacketsDropped records one inbound packet discarded as malformed,
// invalid, or from an unknown source. Failed sends are not counted.
func (m *Metrics) IncPacketsDropped() {
	m.PacketsDropped.Increment()
	m.packetsDroppedCounter.Inc()
}

// IncTriggeredUpdates records one triggered-update cycle.
func (m *Metrics) IncTriggeredUpdates() {
	m.TriggeredUpdates.Increment()
	m.triggeredCounter.Inc()
}

// Package metrics exposes engine activity as prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/RoanBrand/gomq"
	"github.com/RoanBrand/gomq/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements gomq.Observer.
type Metrics struct {
	reg *prometheus.Registry

	State           prometheus.Gauge
	Transitions     *prometheus.CounterVec
	PacketsSent     *prometheus.CounterVec
	PacketsReceived *prometheus.CounterVec
	BytesSent       prometheus.Counter
	BytesReceived   prometheus.Counter
	Drops           *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gomq"
	}

	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		State: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "Current session state (0 idle, 1 resolving, 2 connecting, 3 connected, 4 disconnecting)",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session state transitions",
		}, []string{"to"}),
		PacketsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_sent_total",
			Help:      "Control packets written to the broker",
		}, []string{"type"}),
		PacketsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Control packets received from the broker",
		}, []string{"type"}),
		BytesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Bytes written to the broker",
		}),
		BytesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Bytes of complete packets received from the broker",
		}),
		Drops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_total",
			Help:      "Inbound data dropped",
		}, []string{"reason"}),
	}
}

func (m *Metrics) StateChanged(_, to gomq.State) {
	m.State.Set(float64(to))
	m.Transitions.WithLabelValues(to.String()).Inc()
}

func (m *Metrics) PacketSent(packetType byte, n int) {
	m.PacketsSent.WithLabelValues(model.PacketName(packetType)).Inc()
	m.BytesSent.Add(float64(n))
}

func (m *Metrics) PacketReceived(packetType byte, n int) {
	m.PacketsReceived.WithLabelValues(model.PacketName(packetType)).Inc()
	m.BytesReceived.Add(float64(n))
}

func (m *Metrics) Dropped(reason string) {
	m.Drops.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voicespaces"

// Persistence results recorded by PersistTask.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultDropped = "dropped"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	connectedClients prometheus.Gauge
	trackedRooms     prometheus.Gauge
	commandsTotal    *prometheus.CounterVec
	persistTotal     *prometheus.CounterVec
	persistDuration  *prometheus.HistogramVec
	persistQueue     prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		connectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Number of open websocket connections",
		}),

		trackedRooms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_rooms",
			Help:      "Number of rooms held in memory",
		}),

		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Inbound client commands by type",
		}, []string{"type"}),

		persistTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "tasks_total",
			Help:      "Durability tasks by operation and result",
		}, []string{"op", "result"}),

		persistDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "write_duration_seconds",
			Help:      "Time spent executing a durability task",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		persistQueue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "queue_depth",
			Help:      "Durability tasks waiting for a worker",
		}),
	}
}

// SetConnectedClients records the current connection count.
func (m *Metrics) SetConnectedClients(n int) {
	if m == nil {
		return
	}
	m.connectedClients.Set(float64(n))
}

// SetTrackedRooms records the current room count.
func (m *Metrics) SetTrackedRooms(n int) {
	if m == nil {
		return
	}
	m.trackedRooms.Set(float64(n))
}

// Command counts one inbound command.
func (m *Metrics) Command(typ string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(typ).Inc()
}

// PersistTask counts one durability task outcome.
func (m *Metrics) PersistTask(op, result string) {
	if m == nil {
		return
	}
	m.persistTotal.WithLabelValues(op, result).Inc()
}

// ObservePersist records how long a durability task took.
func (m *Metrics) ObservePersist(op string, seconds float64) {
	if m == nil {
		return
	}
	m.persistDuration.WithLabelValues(op).Observe(seconds)
}

// SetQueueDepth records the number of pending durability tasks.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.persistQueue.Set(float64(n))
}

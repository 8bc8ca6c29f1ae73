package notify

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	EventsReceived      *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	Broadcasts          prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "charge_dispatch",
			Subsystem: "notify",
			Name:      "events_received_total",
			Help:      "Change feed events received, by table.",
		}, []string{"table"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "charge_dispatch",
			Subsystem: "notify",
			Name:      "transitions_total",
			Help:      "Meaningful status transitions detected, by entity.",
		}, []string{"entity"}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "charge_dispatch",
			Subsystem: "notify",
			Name:      "notifications_sent_total",
			Help:      "Notification service calls that succeeded.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "charge_dispatch",
			Subsystem: "notify",
			Name:      "notifications_failed_total",
			Help:      "Notification service calls that failed or were skipped.",
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "charge_dispatch",
			Subsystem: "notify",
			Name:      "broadcasts_total",
			Help:      "schedule:refresh broadcasts published on the hub.",
		}),
	}
}

func (m *Metrics) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.EventsReceived,
		m.Transitions,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.Broadcasts,
	)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// HubMetrics holds Prometheus metrics for the broadcast hub and the stream
// sessions reading from it. It implements hub.Observer and stream.Observer.
type HubMetrics struct {
	MessagesPublished prometheus.Counter
	ListenersNotified prometheus.Histogram
	Subscribers       prometheus.Gauge
	LagEvents         prometheus.Counter
	MessagesSkipped   prometheus.Counter
	ActiveSessions    prometheus.Gauge
	SessionsTotal     prometheus.Counter
}

// NewHubMetrics creates and registers hub metrics on the given registry.
func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	m := &HubMetrics{
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "messages_published_total",
			Help:      "Total number of messages appended to the hub buffer.",
		}),
		ListenersNotified: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "listeners_per_publish",
			Help:      "Number of live subscriptions notified per publish.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "subscribers",
			Help:      "Number of live hub subscriptions.",
		}),
		LagEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "lag_events_total",
			Help:      "Number of times a subscription was overrun and resynchronised.",
		}),
		MessagesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "messages_skipped_total",
			Help:      "Total number of messages lost by lagging subscriptions.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "active_sessions",
			Help:      "Number of open stream sessions.",
		}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "sessions_total",
			Help:      "Total number of stream sessions opened.",
		}),
	}

	reg.MustRegister(
		m.MessagesPublished,
		m.ListenersNotified,
		m.Subscribers,
		m.LagEvents,
		m.MessagesSkipped,
		m.ActiveSessions,
		m.SessionsTotal,
	)
	return m
}

func (m *HubMetrics) MessagePublished(subscribers int) {
	m.MessagesPublished.Inc()
	m.ListenersNotified.Observe(float64(subscribers))
}

func (m *HubMetrics) SubscriberAdded() { m.Subscribers.Inc() }

func (m *HubMetrics) SubscriberRemoved() { m.Subscribers.Dec() }

func (m *HubMetrics) SubscriberLagged(skipped uint64) {
	m.LagEvents.Inc()
	m.MessagesSkipped.Add(float64(skipped))
}

func (m *HubMetrics) SessionOpened() {
	m.ActiveSessions.Inc()
	m.SessionsTotal.Inc()
}

func (m *HubMetrics) SessionClosed() { m.ActiveSessions.Dec() }

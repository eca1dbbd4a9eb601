package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
	"github.com/thuanthe81/ecommerce-mailer/internal/publisher"
	"github.com/thuanthe81/ecommerce-mailer/internal/worker"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EmailsSent        *prometheus.CounterVec
	EmailsDeadLetter  *prometheus.CounterVec
	RetriesScheduled  *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec
	EventsDeduped     *prometheus.CounterVec
	ProcessingLatency *prometheus.HistogramVec
	Reconnects        prometheus.Counter
	QueueReady        prometheus.Gauge
	QueueDelayed      prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total number of emails accepted by the mail transport.",
		}, []string{"kind"}),

		EmailsDeadLetter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_dead_lettered_total",
			Help: "Total number of jobs that failed terminally (permanent error or retries exhausted).",
		}, []string{"kind"}),

		RetriesScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "email_retries_scheduled_total",
			Help: "Total number of delayed retries placed on the queue.",
		}, []string{"kind"}),

		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "email_events_published_total",
			Help: "Total number of events accepted by the publisher.",
		}, []string{"kind"}),

		EventsDeduped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "email_events_deduped_total",
			Help: "Total number of publishes collapsed onto an existing job.",
		}, []string{"kind"}),

		ProcessingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "email_processing_seconds",
			Help:    "Processing latency from dequeue to transport ack.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),

		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_reconnects_total",
			Help: "Total number of successful broker reconnections.",
		}),

		QueueReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "email_queue_ready",
			Help: "Current number of jobs ready for consumption.",
		}),
		QueueDelayed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "email_queue_delayed",
			Help: "Current number of jobs waiting out a retry delay.",
		}),
	}

	reg.MustRegister(
		m.EmailsSent,
		m.EmailsDeadLetter,
		m.RetriesScheduled,
		m.EventsPublished,
		m.EventsDeduped,
		m.ProcessingLatency,
		m.Reconnects,
		m.QueueReady,
		m.QueueDelayed,
	)

	return m
}

// PublisherHooks returns the callbacks expected by publisher.Hooks.
// Centralises the prometheus observation calls so publisher.go stays
// import-free.
func (m *Metrics) PublisherHooks() publisher.Hooks {
	return publisher.Hooks{
		OnPublished: func(kind domain.EventKind) {
			m.EventsPublished.WithLabelValues(string(kind)).Inc()
		},
		OnDeduped: func(kind domain.EventKind) {
			m.EventsDeduped.WithLabelValues(string(kind)).Inc()
		},
		OnReconnect: func() {
			m.Reconnects.Inc()
		},
	}
}

// WorkerHooks returns the callbacks expected by worker.Hooks.
func (m *Metrics) WorkerHooks() worker.Hooks {
	return worker.Hooks{
		OnSent: func(kind domain.EventKind, latency time.Duration) {
			m.EmailsSent.WithLabelValues(string(kind)).Inc()
			m.ProcessingLatency.WithLabelValues(string(kind)).Observe(latency.Seconds())
		},
		OnRetryScheduled: func(kind domain.EventKind) {
			m.RetriesScheduled.WithLabelValues(string(kind)).Inc()
		},
		OnDeadLettered: func(kind domain.EventKind) {
			m.EmailsDeadLetter.WithLabelValues(string(kind)).Inc()
		},
	}
}

// ObserveQueueDepth records the broker's current depth. Called from a
// sampling loop in main for the in-memory broker.
func (m *Metrics) ObserveQueueDepth(ready, delayed int) {
	m.QueueReady.Set(float64(ready))
	m.QueueDelayed.Set(float64(delayed))
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook outcome label values.
const (
	OutcomeRejected          = "rejected"
	OutcomeSkipped           = "skipped"
	OutcomeMalformed         = "malformed"
	OutcomePersistenceFailed = "persistence_failed"
	OutcomeProjected         = "projected"
)

// Metrics holds the collectors for the identity sync pipeline.
type Metrics struct {
	registry        *prometheus.Registry
	webhookEvents   *prometheus.CounterVec
	projectionTime  prometheus.Histogram
	deadLetterPrune prometheus.Counter
}

// New registers the collectors on a private registry so tests can build as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_sync_webhook_events_total",
			Help: "Inbound identity webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		projectionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "identity_sync_projection_duration_seconds",
			Help:    "Time spent writing a normalized event to the user store.",
			Buckets: prometheus.DefBuckets,
		}),
		deadLetterPrune: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_sync_dead_letters_pruned_total",
			Help: "Failed webhook events removed by the retention job.",
		}),
	}
	reg.MustRegister(
		m.webhookEvents,
		m.projectionTime,
		m.deadLetterPrune,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveWebhook counts one delivery.
func (m *Metrics) ObserveWebhook(eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// ObserveProjection records the latency of one store write.
func (m *Metrics) ObserveProjection(d time.Duration) {
	m.projectionTime.Observe(d.Seconds())
}

// AddPruned counts dead letters deleted by retention.
func (m *Metrics) AddPruned(n int64) {
	m.deadLetterPrune.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WebhookEvents exposes the delivery counter, mainly for tests.
func (m *Metrics) WebhookEvents() *prometheus.CounterVec {
	return m.webhookEvents
}

// DeadLettersPruned exposes the retention counter, mainly for tests.
func (m *Metrics) DeadLettersPruned() prometheus.Counter {
	return m.deadLetterPrune
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

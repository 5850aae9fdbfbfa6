package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records processing outcomes for provider notifications.
type WebhookMetrics struct {
	duration    *prometheus.HistogramVec
	processed   *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Duration of webhook processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_processed_total",
		Help: "Webhook notifications processed, by topic and result.",
	}, []string{"topic", "result"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions applied from provider notifications.",
	}, []string{"to"})
	reg.MustRegister(duration, processed, transitions)
	return &WebhookMetrics{
		duration:    duration,
		processed:   processed,
		transitions: transitions,
	}
}

// ObserveDuration records the processing duration for the named topic.
func (w *WebhookMetrics) ObserveDuration(topic string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(topic)).Observe(duration.Seconds())
}

// IncProcessed increments the processed counter for a topic/result pair.
func (w *WebhookMetrics) IncProcessed(topic, result string) {
	if w == nil || w.processed == nil {
		return
	}
	w.processed.WithLabelValues(normalizeLabel(topic), normalizeLabel(result)).Inc()
}

// IncTransition increments the status transition counter.
func (w *WebhookMetrics) IncTransition(to string) {
	if w == nil || w.transitions == nil {
		return
	}
	w.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

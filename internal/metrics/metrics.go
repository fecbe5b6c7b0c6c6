// Package metrics содержит prometheus-метрики рассылок, публикаций и платежных событий.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "finletter"

// Metrics набор коллекторов приложения.
type Metrics struct {
	Emails           *prometheus.CounterVec
	DispatchBatches  prometheus.Counter
	CampaignDuration prometheus.Histogram
	Transitions      *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	PublishedByTick  prometheus.Counter
}

// New регистрирует метрики в reg. nil означает prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Emails: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Emails by delivery outcome.",
		}, []string{"status"}),
		DispatchBatches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_batches_total",
			Help:      "Batches started by the bulk dispatcher.",
		}),
		CampaignDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "campaign_duration_seconds",
			Help:      "Wall time of a bulk campaign run.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_transitions_total",
			Help:      "Content lifecycle transitions by target status.",
		}, []string{"to"}),
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment provider webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		PublishedByTick: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_published_total",
			Help:      "Scheduled items published by the scheduler.",
		}),
	}
}

// ObserveCampaign записывает итоги одной рассылки.
func (m *Metrics) ObserveCampaign(batches int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DispatchBatches.Add(float64(batches))
	m.CampaignDuration.Observe(elapsed.Seconds())
}

// Email учитывает письмо с итоговым статусом.
func (m *Metrics) Email(status string) {
	if m == nil {
		return
	}
	m.Emails.WithLabelValues(status).Inc()
}

// Transition учитывает переход материала в статус to.
func (m *Metrics) Transition(to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(to).Inc()
}

// Webhook учитывает событие платежного провайдера.
func (m *Metrics) Webhook(eventType, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// ScheduledPublished учитывает материалы, опубликованные планировщиком.
func (m *Metrics) ScheduledPublished(n int) {
	if m == nil {
		return
	}
	m.PublishedByTick.Add(float64(n))
}

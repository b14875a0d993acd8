// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "transcript_bridge"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Inbound event metrics
	EventsReceived *prometheus.CounterVec
	EventsDropped  *prometheus.CounterVec

	// Reconciliation metrics
	PartialUpdates     prometheus.Counter
	SegmentsCommitted  prometheus.Counter
	TranslationUpdates prometheus.Counter
	SessionClears      prometheus.Counter

	// Transport metrics
	ConnectionUp      prometheus.Gauge
	ConnectAttempts   prometheus.Counter
	ConnectFailures   prometheus.Counter
	ReconnectsArmed   prometheus.Counter
	SubscriptionDrops prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Rebroadcast hub metrics
	HubClients    prometheus.Gauge
	HubBroadcasts prometheus.Counter
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Total number of classified transcript events received",
		}, []string{"type"}),
		EventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of inbound messages dropped at the classification boundary",
		}, []string{"reason"}),

		PartialUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_updates_total",
			Help:      "Total number of partial transcript replacements applied",
		}),
		SegmentsCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_committed_total",
			Help:      "Total number of utterances committed to the final transcript",
		}),
		TranslationUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_updates_total",
			Help:      "Total number of late translation updates attached to committed segments",
		}),
		SessionClears: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_clears_total",
			Help:      "Total number of session clear operations",
		}),

		ConnectionUp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_up",
			Help:      "Whether the subscription to the transcript source is live (1) or not (0)",
		}),
		ConnectAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Total number of subscription attempts to the transcript source",
		}),
		ConnectFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Total number of failed subscription attempts",
		}),
		ReconnectsArmed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_armed_total",
			Help:      "Total number of reconnect timers armed after a transport failure",
		}),
		SubscriptionDrops: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_drops_total",
			Help:      "Total number of live subscriptions lost to read failures or closes",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		HubClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_clients",
			Help:      "Number of connected rebroadcast clients",
		}),
		HubBroadcasts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_broadcasts_total",
			Help:      "Total number of state snapshots broadcast to rebroadcast clients",
		}),
	}
}

// RecordEventReceived records a classified inbound event by type.
func (m *Metrics) RecordEventReceived(eventType string) {
	m.EventsReceived.WithLabelValues(eventType).Inc()
}

// RecordEventDropped records an inbound message dropped at the boundary.
func (m *Metrics) RecordEventDropped(reason string) {
	m.EventsDropped.WithLabelValues(reason).Inc()
}

// RecordPartialUpdate records a partial transcript replacement.
func (m *Metrics) RecordPartialUpdate() {
	m.PartialUpdates.Inc()
}

// RecordSegmentCommitted records an utterance committed to the final transcript.
func (m *Metrics) RecordSegmentCommitted() {
	m.SegmentsCommitted.Inc()
}

// RecordTranslationUpdate records a late translation update.
func (m *Metrics) RecordTranslationUpdate() {
	m.TranslationUpdates.Inc()
}

// RecordSessionClear records a session clear operation.
func (m *Metrics) RecordSessionClear() {
	m.SessionClears.Inc()
}

// RecordConnectionUp reflects the current subscription state in the gauge.
func (m *Metrics) RecordConnectionUp(up bool) {
	if up {
		m.ConnectionUp.Set(1)
	} else {
		m.ConnectionUp.Set(0)
	}
}

// RecordConnectAttempt records a subscription attempt and its outcome.
func (m *Metrics) RecordConnectAttempt(err error) {
	m.ConnectAttempts.Inc()
	if err != nil {
		m.ConnectFailures.Inc()
	}
}

// RecordReconnectArmed records a reconnect timer being armed.
func (m *Metrics) RecordReconnectArmed() {
	m.ReconnectsArmed.Inc()
}

// RecordSubscriptionDrop records a live subscription being lost.
func (m *Metrics) RecordSubscriptionDrop() {
	m.SubscriptionDrops.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHubClient tracks a rebroadcast client connecting or leaving.
func (m *Metrics) RecordHubClient(delta int) {
	m.HubClients.Add(float64(delta))
}

// RecordHubBroadcast records one snapshot broadcast.
func (m *Metrics) RecordHubBroadcast() {
	m.HubBroadcasts.Inc()
}

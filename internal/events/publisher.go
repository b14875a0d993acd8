// Package events publishes reconciled transcript events to Kafka for
// downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"transcript-bridge-service/internal/observability/metrics"
	"transcript-bridge-service/internal/transcript"
	"transcript-bridge-service/internal/wire"
)

// PartialEvent is published for every partial transcript replacement.
type PartialEvent struct {
	EventType      string `json:"eventType"`
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage"`
	Timestamp      int64  `json:"timestamp"`
}

// FinalEvent is published when an utterance is committed.
type FinalEvent struct {
	EventType      string   `json:"eventType"`
	Text           string   `json:"text"`
	SourceLanguage string   `json:"sourceLanguage"`
	TargetLanguage string   `json:"targetLanguage,omitempty"`
	Timestamp      int64    `json:"timestamp"`
	RTF            *float64 `json:"rtf,omitempty"`
}

// TranslationEvent is published when a late translation update attaches to
// an already-committed utterance.
type TranslationEvent struct {
	EventType      string `json:"eventType"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// Publisher publishes transcript events to separate Kafka topics.
type Publisher struct {
	writerPartial     *kafka.Writer
	writerFinal       *kafka.Writer
	writerTranslation *kafka.Writer
	principal         string
	topicPartial      string
	topicFinal        string
	topicTranslation  string
	enabled           bool
	metrics           *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers          []string
	TopicPartial     string
	TopicFinal       string
	TopicTranslation string
	Principal        string
	Enabled          bool
}

// New creates a new Kafka event publisher with separate topics for partial,
// final, and translation events.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	// Handle nil config case
	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:        cfg.Principal,
			topicPartial:     cfg.TopicPartial,
			topicFinal:       cfg.TopicFinal,
			topicTranslation: cfg.TopicTranslation,
			enabled:          false,
			metrics:          m,
		}
	}

	// Custom dialer with longer timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicPartial", cfg.TopicPartial).
		Str("topicFinal", cfg.TopicFinal).
		Str("topicTranslation", cfg.TopicTranslation).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerPartial:     newWriter(cfg.Brokers, cfg.TopicPartial, transport),
		writerFinal:       newWriter(cfg.Brokers, cfg.TopicFinal, transport),
		writerTranslation: newWriter(cfg.Brokers, cfg.TopicTranslation, transport),
		principal:         cfg.Principal,
		topicPartial:      cfg.TopicPartial,
		topicFinal:        cfg.TopicFinal,
		topicTranslation:  cfg.TopicTranslation,
		enabled:           true,
		metrics:           m,
	}
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// PublishOutcome maps an applied reconciliation outcome to the matching
// topic. Status outcomes are not published; they are service-local state.
func (p *Publisher) PublishOutcome(ctx context.Context, outcome transcript.Outcome, ev wire.Event) {
	chunk, ok := ev.(wire.Chunk)
	if !ok {
		return
	}

	switch outcome {
	case transcript.OutcomePartial:
		p.publishLogged(ctx, p.writerPartial, p.topicPartial, "partial", PartialEvent{
			EventType:      "transcript.partial",
			Text:           chunk.OriginalText,
			SourceLanguage: chunk.SourceLanguage,
			Timestamp:      chunk.TimestampMs,
		})
	case transcript.OutcomeCommit:
		p.publishLogged(ctx, p.writerFinal, p.topicFinal, "final", FinalEvent{
			EventType:      "transcript.final",
			Text:           chunk.OriginalText,
			SourceLanguage: chunk.SourceLanguage,
			TargetLanguage: chunk.TargetLanguage,
			Timestamp:      chunk.TimestampMs,
			RTF:            chunk.RTF,
		})
	case transcript.OutcomeTranslation:
		p.publishLogged(ctx, p.writerTranslation, p.topicTranslation, "translation", TranslationEvent{
			EventType:      "transcript.translation",
			OriginalText:   chunk.OriginalText,
			TranslatedText: chunk.TranslatedText,
			TargetLanguage: chunk.TargetLanguage,
			Timestamp:      chunk.TimestampMs,
		})
	}
}

// PublishPartial publishes a partial transcript event to the partial topic.
func (p *Publisher) PublishPartial(ctx context.Context, event any) error {
	return p.publish(ctx, p.writerPartial, p.topicPartial, "partial", event)
}

// PublishFinal publishes a committed utterance event to the final topic.
func (p *Publisher) PublishFinal(ctx context.Context, event any) error {
	return p.publish(ctx, p.writerFinal, p.topicFinal, "final", event)
}

// PublishTranslation publishes a translation update event to the
// translation topic.
func (p *Publisher) PublishTranslation(ctx context.Context, event any) error {
	return p.publish(ctx, p.writerTranslation, p.topicTranslation, "translation", event)
}

func (p *Publisher) publishLogged(ctx context.Context, writer *kafka.Writer, topic, eventType string, event any) {
	if err := p.publish(ctx, writer, topic, eventType, event); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to publish transcript event")
	}
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(p.principal),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes all Kafka writers.
func (p *Publisher) Close() error {
	var err error
	for _, w := range []*kafka.Writer{p.writerPartial, p.writerFinal, p.writerTranslation} {
		if w == nil {
			continue
		}
		if e := w.Close(); e != nil {
			log.Error().Err(e).Str("topic", w.Topic).Msg("Error closing Kafka writer")
			err = e
		}
	}
	return err
}

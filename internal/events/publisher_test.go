package events

import (
	"context"
	"testing"

	"transcript-bridge-service/internal/transcript"
	"transcript-bridge-service/internal/wire"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerPartial != nil || p.writerFinal != nil || p.writerTranslation != nil {
				t.Error("expected nil writers when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:          false,
		Brokers:          []string{"localhost:9092"},
		TopicPartial:     "test.partial",
		TopicFinal:       "test.final",
		TopicTranslation: "test.translation",
		Principal:        "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicPartial != "test.partial" {
		t.Errorf("expected topic partial 'test.partial', got %s", p.topicPartial)
	}
	if p.topicFinal != "test.final" {
		t.Errorf("expected topic final 'test.final', got %s", p.topicFinal)
	}
	if p.topicTranslation != "test.translation" {
		t.Errorf("expected topic translation 'test.translation', got %s", p.topicTranslation)
	}
}

func TestPublisher_Publish_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.PublishPartial(context.Background(), PartialEvent{Text: "test partial"}); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
	if err := p.PublishFinal(context.Background(), FinalEvent{Text: "test final"}); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
	if err := p.PublishTranslation(context.Background(), TranslationEvent{TranslatedText: "test"}); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Channels cannot be marshaled
	event := make(chan int)
	if err := p.PublishPartial(context.Background(), event); err == nil {
		t.Error("expected error for unmarshalable event")
	}
}

func TestPublisher_PublishOutcome(t *testing.T) {
	p := New(&Config{Enabled: false})

	rtf := 0.42
	chunk := wire.Chunk{
		OriginalText:   "bom dia",
		TranslatedText: "good morning",
		SourceLanguage: "pt",
		TargetLanguage: "en",
		TimestampMs:    1700000000000,
		IsFinal:        true,
		RTF:            &rtf,
	}

	// Must not panic or attempt a write in disabled mode, for every outcome.
	outcomes := []transcript.Outcome{
		transcript.OutcomeNone,
		transcript.OutcomePartial,
		transcript.OutcomeCommit,
		transcript.OutcomeTranslation,
		transcript.OutcomeStatus,
	}
	for _, outcome := range outcomes {
		p.PublishOutcome(context.Background(), outcome, chunk)
	}
}

func TestPublisher_PublishOutcome_NonChunkEvents(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Status and error events are service-local and never published.
	p.PublishOutcome(context.Background(), transcript.OutcomeStatus, wire.Status{Text: "listening"})
	p.PublishOutcome(context.Background(), transcript.OutcomeStatus, wire.Error{Text: "overload"})
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilWriters(t *testing.T) {
	p := &Publisher{}

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}

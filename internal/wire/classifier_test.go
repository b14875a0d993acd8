package wire

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestClassifier() *Classifier {
	return NewClassifier(zerolog.Nop())
}

func TestClassify_Chunk(t *testing.T) {
	c := newTestClassifier()

	payload := []byte(`{
		"original_text": "Bom dia a todos",
		"translated_text": "Good morning everyone",
		"source_language": "pt",
		"target_language": "en",
		"timestamp": 1700000000123,
		"is_final": true,
		"rtf": 0.31
	}`)

	ev, ok := c.Classify(payload)
	if !ok {
		t.Fatal("expected classification to succeed")
	}

	chunk, ok := ev.(Chunk)
	if !ok {
		t.Fatalf("expected Chunk, got %T", ev)
	}
	if chunk.OriginalText != "Bom dia a todos" {
		t.Errorf("unexpected original text: %q", chunk.OriginalText)
	}
	if chunk.TranslatedText != "Good morning everyone" {
		t.Errorf("unexpected translated text: %q", chunk.TranslatedText)
	}
	if chunk.SourceLanguage != "pt" {
		t.Errorf("unexpected source language: %q", chunk.SourceLanguage)
	}
	if chunk.TargetLanguage != "en" {
		t.Errorf("unexpected target language: %q", chunk.TargetLanguage)
	}
	if chunk.TimestampMs != 1700000000123 {
		t.Errorf("unexpected timestamp: %d", chunk.TimestampMs)
	}
	if !chunk.IsFinal {
		t.Error("expected final chunk")
	}
	if chunk.RTF == nil || *chunk.RTF != 0.31 {
		t.Errorf("unexpected rtf: %v", chunk.RTF)
	}
}

func TestClassify_ChunkDefaults(t *testing.T) {
	c := newTestClassifier()

	ev, ok := c.Classify([]byte(`{"original_text": "hello"}`))
	if !ok {
		t.Fatal("expected classification to succeed")
	}

	chunk := ev.(Chunk)
	if chunk.TranslatedText != "hello" {
		t.Errorf("expected translated text to default to original, got %q", chunk.TranslatedText)
	}
	if chunk.SourceLanguage != "auto" {
		t.Errorf("expected source language default 'auto', got %q", chunk.SourceLanguage)
	}
	if chunk.RTF != nil {
		t.Errorf("expected nil rtf, got %v", chunk.RTF)
	}
	if chunk.IsFinal {
		t.Error("expected is_final to default to false")
	}
}

func TestClassify_ChunkWinsOverType(t *testing.T) {
	c := newTestClassifier()

	// Presence of original_text classifies as chunk regardless of type.
	ev, ok := c.Classify([]byte(`{"type": "status", "original_text": "hello"}`))
	if !ok {
		t.Fatal("expected classification to succeed")
	}
	if _, isChunk := ev.(Chunk); !isChunk {
		t.Fatalf("expected Chunk, got %T", ev)
	}
}

func TestClassify_Status(t *testing.T) {
	c := newTestClassifier()

	ev, ok := c.Classify([]byte(`{"type": "status", "text": "listening"}`))
	if !ok {
		t.Fatal("expected classification to succeed")
	}
	status, isStatus := ev.(Status)
	if !isStatus {
		t.Fatalf("expected Status, got %T", ev)
	}
	if status.Text != "listening" {
		t.Errorf("unexpected status text: %q", status.Text)
	}
}

func TestClassify_Error(t *testing.T) {
	c := newTestClassifier()

	ev, ok := c.Classify([]byte(`{"type": "error", "text": "model overloaded"}`))
	if !ok {
		t.Fatal("expected classification to succeed")
	}
	errEv, isErr := ev.(Error)
	if !isErr {
		t.Fatalf("expected Error, got %T", ev)
	}
	if errEv.Text != "model overloaded" {
		t.Errorf("unexpected error text: %q", errEv.Text)
	}
}

func TestClassify_Drops(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "this is not json"},
		{"empty payload", ""},
		{"json array", `[1, 2, 3]`},
		{"no type no original_text", `{"text": "orphan"}`},
		{"unknown type", `{"type": "heartbeat"}`},
		{"is_final wrong type", `{"original_text": "x", "is_final": "yes"}`},
		{"rtf wrong type", `{"original_text": "x", "rtf": "fast"}`},
		{"timestamp wrong type", `{"original_text": "x", "timestamp": "now"}`},
		{"original_text wrong type", `{"original_text": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := c.Classify([]byte(tt.payload))
			if ok {
				t.Errorf("expected drop, got event %#v", ev)
			}
			if ev != nil {
				t.Errorf("expected nil event on drop, got %#v", ev)
			}
		})
	}
}

func TestClassify_UnknownFieldsIgnored(t *testing.T) {
	c := newTestClassifier()

	ev, ok := c.Classify([]byte(`{"original_text": "hi", "confidence": 0.9, "speaker": "a"}`))
	if !ok {
		t.Fatal("expected forward-compatible payload to classify")
	}
	chunk := ev.(Chunk)
	if chunk.OriginalText != "hi" {
		t.Errorf("unexpected original text: %q", chunk.OriginalText)
	}
}

func TestClassify_NeverPanics(t *testing.T) {
	c := newTestClassifier()

	payloads := []string{
		`null`, `true`, `"just a string"`, `0`, `{}`, `{"type": null}`,
	}
	for _, p := range payloads {
		// A malformed payload must be dropped, never escape as a panic.
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("payload %q panicked: %v", p, r)
				}
			}()
			c.Classify([]byte(p))
		}()
	}
}

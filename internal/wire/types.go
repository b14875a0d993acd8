// Package wire defines the inbound transcript event wire format and the
// classifier that turns raw payloads into typed events.
package wire

// Event is a classified transcript event. Exactly one of the concrete
// types Chunk, Status, or Error is produced per accepted payload.
type Event interface {
	isEvent()
}

// Chunk is a unit of recognized speech from the transcript source.
// TranslatedText equals OriginalText when no translation is active;
// the source emits a second final chunk with a differing TranslatedText
// once a translation for the utterance is available.
type Chunk struct {
	OriginalText   string
	TranslatedText string
	SourceLanguage string
	TargetLanguage string
	TimestampMs    int64
	IsFinal        bool
	// RTF is the real-time factor (processing time / audio duration).
	// Nil when the source did not report one.
	RTF *float64
}

// Status is informational state from the upstream pipeline.
type Status struct {
	Text string
}

// Error is an upstream-reported failure. It is not fatal to the consumer.
type Error struct {
	Text string
}

func (Chunk) isEvent()  {}
func (Status) isEvent() {}
func (Error) isEvent()  {}

// DefaultSourceLanguage is used when a chunk carries no source language.
const DefaultSourceLanguage = "auto"

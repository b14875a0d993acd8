package wire

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"transcript-bridge-service/internal/observability/metrics"
)

// messageSchema constrains the shape of inbound payloads. It only checks
// field types; unknown fields pass through so newer sources keep working.
const messageSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "type": {"type": "string"},
    "text": {"type": "string"},
    "original_text": {"type": "string"},
    "translated_text": {"type": "string"},
    "source_language": {"type": "string"},
    "target_language": {"type": "string"},
    "timestamp": {"type": "number"},
    "is_final": {"type": "boolean"},
    "rtf": {"type": "number"}
  }
}`

// rawMessage mirrors the JSON wire shape, one object per message.
// OriginalText is a pointer: its presence, not its value, decides whether
// the message is a chunk.
type rawMessage struct {
	Type           string   `json:"type"`
	Text           string   `json:"text"`
	OriginalText   *string  `json:"original_text"`
	TranslatedText string   `json:"translated_text"`
	SourceLanguage string   `json:"source_language"`
	TargetLanguage string   `json:"target_language"`
	Timestamp      int64    `json:"timestamp"`
	IsFinal        bool     `json:"is_final"`
	RTF            *float64 `json:"rtf"`
}

// Classifier parses raw payloads into typed events. Anything malformed is
// dropped: parse failures never propagate to callers.
type Classifier struct {
	schema  *jsonschema.Schema
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewClassifier compiles the wire schema and returns a ready classifier.
func NewClassifier(log zerolog.Logger) *Classifier {
	// The schema is a compile-time constant; a failure here is a programming
	// error, not an input error.
	schema := jsonschema.MustCompileString("transcript-message.json", messageSchema)
	return &Classifier{
		schema:  schema,
		log:     log,
		metrics: metrics.DefaultMetrics,
	}
}

// Classify parses and validates a raw payload. It returns the typed event
// and true on success, or nil and false when the payload is dropped.
func (c *Classifier) Classify(payload []byte) (Event, bool) {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		c.drop("parse", payload, err)
		return nil, false
	}
	if err := c.schema.Validate(doc); err != nil {
		c.drop("schema", payload, err)
		return nil, false
	}

	var raw rawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		c.drop("parse", payload, err)
		return nil, false
	}

	// Presence of original_text classifies the message as a chunk,
	// regardless of any type field.
	if raw.OriginalText != nil {
		chunk := Chunk{
			OriginalText:   *raw.OriginalText,
			TranslatedText: raw.TranslatedText,
			SourceLanguage: raw.SourceLanguage,
			TargetLanguage: raw.TargetLanguage,
			TimestampMs:    raw.Timestamp,
			IsFinal:        raw.IsFinal,
			RTF:            raw.RTF,
		}
		if chunk.TranslatedText == "" {
			chunk.TranslatedText = chunk.OriginalText
		}
		if chunk.SourceLanguage == "" {
			chunk.SourceLanguage = DefaultSourceLanguage
		}
		if chunk.IsFinal {
			c.metrics.RecordEventReceived("chunk_final")
		} else {
			c.metrics.RecordEventReceived("chunk_partial")
		}
		return chunk, true
	}

	switch raw.Type {
	case "status":
		c.metrics.RecordEventReceived("status")
		return Status{Text: raw.Text}, true
	case "error":
		c.metrics.RecordEventReceived("error")
		return Error{Text: raw.Text}, true
	}

	c.drop("unclassified", payload, nil)
	return nil, false
}

func (c *Classifier) drop(reason string, payload []byte, err error) {
	c.metrics.RecordEventDropped(reason)
	c.log.Debug().
		Str("reason", reason).
		Err(err).
		Str("payload", truncate(string(payload), 120)).
		Msg("Dropped transcript message")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return strings.ToValidUTF8(s[:maxLen], "") + "..."
}

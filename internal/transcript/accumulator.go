package transcript

import (
	"sync"

	"github.com/rs/zerolog"

	"transcript-bridge-service/internal/observability/metrics"
	"transcript-bridge-service/internal/wire"
)

const defaultSourceLanguage = wire.DefaultSourceLanguage

// Observer receives a state snapshot after every mutation. Implementations
// must not block; slow consumers should buffer on their side.
type Observer interface {
	OnStateChange(State)
}

// Accumulator reconciles classified transcript events into a single
// consistent view of what has been said and what is being said.
//
// The upstream source emits each utterance twice: once as a plain final
// chunk (translated text equal to the original) and, when translation is
// active, a second time with the translation filled in. The wire format
// carries no sequence number or chunk identifier correlating the two, so
// the second emission is recognized purely by the translated text
// differing from the original. Events are applied strictly in arrival
// order with no look-ahead or reordering tolerance.
type Accumulator struct {
	mu        sync.RWMutex
	state     State
	segments  int
	observers []Observer

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewAccumulator creates an accumulator with empty initial state.
func NewAccumulator(log zerolog.Logger) *Accumulator {
	return &Accumulator{
		state:   initialState(),
		log:     log,
		metrics: metrics.DefaultMetrics,
	}
}

// Subscribe registers an observer for state change notifications.
func (a *Accumulator) Subscribe(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, o)
}

// Unsubscribe removes a previously registered observer.
func (a *Accumulator) Unsubscribe(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.observers[:0]
	for _, existing := range a.observers {
		if existing != o {
			kept = append(kept, existing)
		}
	}
	a.observers = kept
}

// Snapshot returns a copy of the current state.
func (a *Accumulator) Snapshot() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Segments returns the number of utterances committed since the last clear.
func (a *Accumulator) Segments() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.segments
}

// FullText returns the translated transcript when any translation has been
// attached, otherwise the committed original transcript. Read-only.
func (a *Accumulator) FullText() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.state.TranslatedText != "" {
		return a.state.TranslatedText
	}
	return a.state.FinalText
}

// Apply reconciles one classified event into the state and reports what it
// did. Each call's effect on state is atomic with respect to other calls.
func (a *Accumulator) Apply(ev wire.Event) Outcome {
	a.mu.Lock()
	var outcome Outcome
	switch e := ev.(type) {
	case wire.Chunk:
		outcome = a.applyChunk(e)
	case wire.Status:
		a.state.StatusText = e.Text
		outcome = OutcomeStatus
	case wire.Error:
		// Upstream errors surface on the status line only; the connection
		// and the transcript are unaffected.
		a.state.StatusText = "error: " + e.Text
		a.log.Warn().Str("text", e.Text).Msg("Upstream pipeline error")
		outcome = OutcomeStatus
	default:
		outcome = OutcomeNone
	}
	snapshot := a.state
	observers := a.observers
	a.mu.Unlock()

	if outcome != OutcomeNone {
		for _, o := range observers {
			o.OnStateChange(snapshot)
		}
	}
	return outcome
}

// applyChunk runs the per-chunk reconciliation rules. Caller holds a.mu.
func (a *Accumulator) applyChunk(c wire.Chunk) Outcome {
	if c.RTF != nil {
		a.state.RTF = c.RTF
	}

	if !c.IsFinal {
		a.state.Partial = c.OriginalText
		a.state.SourceLanguage = c.SourceLanguage
		a.state.HasContent = true
		a.metrics.RecordPartialUpdate()
		return OutcomePartial
	}

	if c.TranslatedText != c.OriginalText {
		// Second emission of an already-committed utterance: attach the
		// translation, never re-append to the final transcript.
		a.state.TranslatedText = joinSegments(a.state.TranslatedText, c.TranslatedText)
		a.state.HasTranslation = true
		a.metrics.RecordTranslationUpdate()
		a.log.Debug().
			Str("translated", c.TranslatedText).
			Msg("Translation update attached")
		return OutcomeTranslation
	}

	// First-time commit of a new utterance.
	a.state.FinalText = joinSegments(a.state.FinalText, c.OriginalText)
	a.state.Partial = ""
	a.state.SourceLanguage = c.SourceLanguage
	a.state.HasContent = true
	a.segments++
	a.metrics.RecordSegmentCommitted()
	a.log.Debug().
		Int("segments", a.segments).
		Str("text", c.OriginalText).
		Msg("Utterance committed")
	return OutcomeCommit
}

// SetConnected mirrors the transport's subscription state into the
// observable view.
func (a *Accumulator) SetConnected(connected bool) {
	a.mu.Lock()
	changed := a.state.Connected != connected
	a.state.Connected = connected
	snapshot := a.state
	observers := a.observers
	a.mu.Unlock()

	if !changed {
		return
	}
	for _, o := range observers {
		o.OnStateChange(snapshot)
	}
}

// Clear resets every state field to its initial default. The connected
// flag reflects the transport, not session content, and survives a clear.
func (a *Accumulator) Clear() {
	a.mu.Lock()
	connected := a.state.Connected
	a.state = initialState()
	a.state.Connected = connected
	a.segments = 0
	snapshot := a.state
	observers := a.observers
	a.mu.Unlock()

	a.metrics.RecordSessionClear()
	a.log.Info().Msg("Transcript state cleared")
	for _, o := range observers {
		o.OnStateChange(snapshot)
	}
}

// joinSegments appends a committed segment, space-joined with whatever is
// already there.
func joinSegments(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + " " + next
}

// Package transcript implements the reconciliation engine that merges the
// upstream event stream into a single consistent transcript view.
package transcript

// State is the observable, reconciled transcript state. Values handed to
// observers and snapshot callers are copies; mutation happens only inside
// the accumulator's event handling.
type State struct {
	// FinalText is the committed transcript. It only grows, by appending a
	// committed chunk's original text, space-joined with existing content.
	FinalText string `json:"finalText"`
	// Partial holds the most recent non-final chunk's text. It is wholly
	// replaced on each update and cleared when the utterance commits.
	Partial string `json:"partial"`
	// TranslatedText is the parallel track of translated committed segments.
	TranslatedText string `json:"translatedText"`

	HasTranslation bool   `json:"hasTranslation"`
	HasContent     bool   `json:"hasContent"`
	SourceLanguage string `json:"sourceLanguage"`
	// RTF is the most recently reported real-time factor, nil before any
	// final chunk carried one. Last write wins, never accumulated.
	RTF *float64 `json:"rtf"`

	StatusText string `json:"statusText"`
	Connected  bool   `json:"connected"`
}

func initialState() State {
	return State{SourceLanguage: defaultSourceLanguage}
}

// Outcome describes what a single applied event did to the state. The
// bridge uses it to route sink publishes without re-deriving the decision.
type Outcome int

const (
	// OutcomeNone - the event did not change transcript content.
	OutcomeNone Outcome = iota
	// OutcomePartial - the in-progress utterance text was replaced.
	OutcomePartial
	// OutcomeCommit - a new utterance was committed to the final transcript.
	OutcomeCommit
	// OutcomeTranslation - a late translation update was attached.
	OutcomeTranslation
	// OutcomeStatus - the status line changed.
	OutcomeStatus
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "NONE"
	case OutcomePartial:
		return "PARTIAL"
	case OutcomeCommit:
		return "COMMIT"
	case OutcomeTranslation:
		return "TRANSLATION"
	case OutcomeStatus:
		return "STATUS"
	default:
		return "UNKNOWN"
	}
}

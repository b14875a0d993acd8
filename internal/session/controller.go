// Package session layers lifecycle and export operations over the
// transcript accumulator.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"transcript-bridge-service/internal/transcript"
)

// Info is a point-in-time summary of the active session.
type Info struct {
	StartedAt       time.Time     `json:"startedAt"`
	Duration        time.Duration `json:"-"`
	DurationSeconds int64         `json:"durationSeconds"`
	Segments        int           `json:"segments"`
	HasTranslation  bool          `json:"hasTranslation"`
	HasContent      bool          `json:"hasContent"`
	Connected       bool          `json:"connected"`
}

// Controller exposes reset and pull-based retrieval on top of the
// accumulator. It holds no transcript state of its own.
type Controller struct {
	acc *transcript.Accumulator
	log zerolog.Logger

	mu        sync.Mutex
	startedAt time.Time
}

// New creates a controller and starts the session clock. The accumulator is
// expected to be in its initial empty state.
func New(acc *transcript.Accumulator, log zerolog.Logger) *Controller {
	return &Controller{
		acc:       acc,
		log:       log,
		startedAt: time.Now().UTC(),
	}
}

// Clear resets all transcript state and restarts the session clock.
// Callable at any time.
func (c *Controller) Clear() {
	c.acc.Clear()
	c.mu.Lock()
	c.startedAt = time.Now().UTC()
	c.mu.Unlock()
	c.log.Info().Msg("Session cleared")
}

// FullText returns the translated transcript when one exists, otherwise
// the committed original transcript. No side effects; intended for
// export and copy operations.
func (c *Controller) FullText() string {
	return c.acc.FullText()
}

// Snapshot returns the current reconciled transcript state.
func (c *Controller) Snapshot() transcript.State {
	return c.acc.Snapshot()
}

// Info returns session metadata alongside a few state flags.
func (c *Controller) Info() Info {
	c.mu.Lock()
	startedAt := c.startedAt
	c.mu.Unlock()

	snapshot := c.acc.Snapshot()
	duration := time.Since(startedAt)
	return Info{
		StartedAt:       startedAt,
		Duration:        duration,
		DurationSeconds: int64(duration.Seconds()),
		Segments:        c.acc.Segments(),
		HasTranslation:  snapshot.HasTranslation,
		HasContent:      snapshot.HasContent,
		Connected:       snapshot.Connected,
	}
}

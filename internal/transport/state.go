// Package transport maintains the single live subscription to the external
// transcript source and keeps it alive across failures.
package transport

import "fmt"

// State represents the lifecycle state of the connection.
type State int

const (
	// StateDisconnected - No live subscription; a reconnect timer may be armed.
	StateDisconnected State = iota
	// StateConnecting - A dial attempt is in flight.
	StateConnecting
	// StateConnected - Exactly one live subscription is open.
	StateConnected
	// StateClosed - Torn down by the owner. Terminal, no further transitions.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

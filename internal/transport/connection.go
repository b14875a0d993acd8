package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"transcript-bridge-service/internal/observability/metrics"
)

// DefaultRetryDelay is the fixed delay between a transport failure and the
// next subscription attempt.
const DefaultRetryDelay = 3000 * time.Millisecond

// ErrClosed is returned when operating on a connection after teardown.
var ErrClosed = errors.New("transport: connection closed")

// Handler receives each raw message payload, in strict arrival order, from
// the single read loop of the live subscription.
type Handler func(payload []byte)

// Config holds connection configuration.
type Config struct {
	// URL is the transcript source endpoint. Injected, never hardcoded.
	URL string
	// RetryDelay between failure and reconnect. Defaults to DefaultRetryDelay.
	RetryDelay time.Duration
	// Dialer establishes subscriptions. Defaults to WebSocketDialer.
	Dialer Dialer
	// Handler receives raw payloads. Required.
	Handler Handler
	// OnConnectionChange is invoked with the new connected flag whenever it
	// flips. Optional.
	OnConnectionChange func(connected bool)
}

// Connection owns at most one live subscription and at most one pending
// reconnect timer at any instant. Any failure tears the subscription down
// and arms a reconnect; reconnection is unbounded with a fixed delay.
//
// State machine:
//
//	DISCONNECTED → CONNECTING → CONNECTED
//	      ↑             │            │
//	      └── failure ──┴────────────┘  (arms reconnect timer)
//
// Close moves any state to the terminal CLOSED. The closed flag, not timer
// cancellation alone, is what stops a reconnect whose timer already fired
// concurrently with teardown.
type Connection struct {
	url        string
	retryDelay time.Duration
	dialer     Dialer
	handler    Handler
	onChange   func(bool)

	mu     sync.Mutex
	state  State
	conn   Conn
	timer  *time.Timer
	closed bool

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a connection in the DISCONNECTED state. It does not dial.
func New(cfg Config, log zerolog.Logger) (*Connection, error) {
	if cfg.URL == "" {
		return nil, errors.New("transport: source URL is required")
	}
	if cfg.Handler == nil {
		return nil, errors.New("transport: message handler is required")
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Dialer == nil {
		cfg.Dialer = WebSocketDialer{}
	}
	return &Connection{
		url:        cfg.URL,
		retryDelay: cfg.RetryDelay,
		dialer:     cfg.Dialer,
		handler:    cfg.Handler,
		onChange:   cfg.OnConnectionChange,
		state:      StateDisconnected,
		log:        log,
		metrics:    metrics.DefaultMetrics,
	}, nil
}

// State returns the current connection state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether a subscription is currently live.
func (c *Connection) Connected() bool {
	return c.State() == StateConnected
}

// Connect starts a subscription attempt unless one is already live or in
// flight. Returns ErrClosed after teardown.
func (c *Connection) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	go c.dial()
	return nil
}

// Close tears the connection down: cancels any pending reconnect timer,
// closes the live subscription, and prevents any further reconnects.
// Idempotent.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	wasConnected := c.state == StateConnected
	c.state = StateClosed
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.log.Info().Msg("Transport connection closed")
	var err error
	if conn != nil {
		err = conn.Close()
	}
	if wasConnected {
		c.notify(false)
	}
	return err
}

// dial performs one subscription attempt. Runs on its own goroutine.
func (c *Connection) dial() {
	conn, err := c.dialer.Dial(context.Background(), c.url)
	c.metrics.RecordConnectAttempt(err)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.state = StateDisconnected
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("url", c.url).Msg("Subscription attempt failed")
		c.notify(false)
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	c.log.Info().Str("url", c.url).Msg("Subscribed to transcript source")
	c.notify(true)
	go c.readLoop(conn)
}

// readLoop delivers payloads until the subscription fails or is closed.
func (c *Connection) readLoop(conn Conn) {
	for {
		payload, err := conn.ReadMessage()
		if err != nil {
			c.onFailure(conn, err)
			return
		}
		c.handler(payload)
	}
}

// onFailure handles a read failure from a live subscription.
func (c *Connection) onFailure(conn Conn, err error) {
	c.mu.Lock()
	// A stale read loop from a subscription that was already replaced or
	// torn down must not disturb the current one.
	if c.closed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	conn.Close()
	c.conn = nil
	c.state = StateDisconnected
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	c.metrics.RecordSubscriptionDrop()
	c.log.Warn().Err(err).Dur("retryIn", c.retryDelay).Msg("Subscription lost, reconnect armed")
	c.notify(false)
}

// scheduleReconnectLocked arms the reconnect timer. Caller holds c.mu.
func (c *Connection) scheduleReconnectLocked() {
	if c.closed || c.timer != nil {
		return
	}
	c.metrics.RecordReconnectArmed()
	c.timer = time.AfterFunc(c.retryDelay, func() {
		c.mu.Lock()
		c.timer = nil
		// The timer may fire concurrently with Close; the closed flag is
		// the authority, not timer cancellation.
		if c.closed || c.state != StateDisconnected {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()
		c.dial()
	})
}

func (c *Connection) notify(connected bool) {
	c.metrics.RecordConnectionUp(connected)
	if c.onChange != nil {
		c.onChange(connected)
	}
}

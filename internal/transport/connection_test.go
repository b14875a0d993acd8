package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeConn is a scriptable subscription: pushed payloads come out of
// ReadMessage, and Close (or fail) unblocks it with an error.
type fakeConn struct {
	messages chan []byte
	done     chan struct{}
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		messages: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case payload := <-f.messages:
		return payload, nil
	case <-f.done:
		return nil, errors.New("connection lost")
	}
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

func (f *fakeConn) closed() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// fakeDialer hands out fakeConns and can be told to fail the next n dials.
type fakeDialer struct {
	mu       sync.Mutex
	failures int
	conns    []*fakeConn
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("dial refused")
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) liveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	live := 0
	for _, c := range d.conns {
		if !c.closed() {
			live++
		}
	}
	return live
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func newTestConnection(t *testing.T, cfg Config) (*Connection, *fakeDialer) {
	t.Helper()
	dialer := &fakeDialer{}
	cfg.Dialer = dialer
	if cfg.URL == "" {
		cfg.URL = "ws://test.invalid:8765"
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 10 * time.Millisecond
	}
	if cfg.Handler == nil {
		cfg.Handler = func([]byte) {}
	}
	conn, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, dialer
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Handler: func([]byte) {}}, zerolog.Nop()); err == nil {
		t.Error("expected error for missing URL")
	}
	if _, err := New(Config{URL: "ws://localhost:8765"}, zerolog.Nop()); err == nil {
		t.Error("expected error for missing handler")
	}
}

func TestConnection_DeliversPayloadsInOrder(t *testing.T) {
	received := make(chan []byte, 16)
	conn, dialer := newTestConnection(t, Config{
		Handler: func(payload []byte) { received <- payload },
	})

	if err := conn.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitFor(t, conn.Connected, "never connected")

	sub := dialer.lastConn()
	sub.messages <- []byte("first")
	sub.messages <- []byte("second")

	for _, want := range []string{"first", "second"} {
		select {
		case got := <-received:
			if string(got) != want {
				t.Fatalf("expected %q, got %q", want, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestConnection_ConnectIsIdempotent(t *testing.T) {
	conn, dialer := newTestConnection(t, Config{})

	conn.Connect()
	waitFor(t, conn.Connected, "never connected")
	conn.Connect()
	conn.Connect()

	time.Sleep(20 * time.Millisecond)
	if got := dialer.dialCount(); got != 1 {
		t.Errorf("expected 1 dial for repeated Connect, got %d", got)
	}
}

func TestConnection_ReconnectsAfterSubscriptionLoss(t *testing.T) {
	conn, dialer := newTestConnection(t, Config{})

	conn.Connect()
	waitFor(t, conn.Connected, "never connected")

	// Kill the live subscription and let the fixed-delay retry kick in.
	dialer.lastConn().Close()
	waitFor(t, func() bool { return dialer.dialCount() == 2 && conn.Connected() }, "never reconnected")

	if live := dialer.liveCount(); live != 1 {
		t.Errorf("expected exactly one live subscription, got %d", live)
	}
}

func TestConnection_RetriesFailedDials(t *testing.T) {
	conn, dialer := newTestConnection(t, Config{})
	dialer.mu.Lock()
	dialer.failures = 2
	dialer.mu.Unlock()

	conn.Connect()
	waitFor(t, conn.Connected, "never connected after failed dials")

	if got := dialer.dialCount(); got != 1 {
		t.Errorf("expected 1 successful dial, got %d", got)
	}
}

func TestConnection_CloseCancelsPendingReconnect(t *testing.T) {
	conn, dialer := newTestConnection(t, Config{RetryDelay: 20 * time.Millisecond})

	conn.Connect()
	waitFor(t, conn.Connected, "never connected")

	dialer.lastConn().Close()
	waitFor(t, func() bool { return conn.State() == StateDisconnected }, "never saw disconnect")
	conn.Close()

	time.Sleep(60 * time.Millisecond)
	if got := dialer.dialCount(); got != 1 {
		t.Errorf("expected no dials after Close, got %d", got)
	}
	if got := conn.State(); got != StateClosed {
		t.Errorf("expected CLOSED, got %v", got)
	}
}

func TestConnection_CloseTearsDownLiveSubscription(t *testing.T) {
	conn, dialer := newTestConnection(t, Config{})

	conn.Connect()
	waitFor(t, conn.Connected, "never connected")
	conn.Close()

	waitFor(t, func() bool { return dialer.liveCount() == 0 }, "subscription left open after Close")
}

func TestConnection_ConnectAfterClose(t *testing.T) {
	conn, _ := newTestConnection(t, Config{})

	conn.Close()
	if err := conn.Connect(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestConnection_CloseIsIdempotent(t *testing.T) {
	conn, _ := newTestConnection(t, Config{})

	conn.Connect()
	waitFor(t, conn.Connected, "never connected")

	if err := conn.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestConnection_NotifiesConnectionChanges(t *testing.T) {
	var mu sync.Mutex
	var flips []bool
	conn, dialer := newTestConnection(t, Config{
		OnConnectionChange: func(connected bool) {
			mu.Lock()
			flips = append(flips, connected)
			mu.Unlock()
		},
	})

	conn.Connect()
	waitFor(t, conn.Connected, "never connected")
	dialer.lastConn().Close()
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(flips) == 3
	}, "never saw reconnect notification")

	mu.Lock()
	defer mu.Unlock()
	want := []bool{true, false, true}
	if len(flips) != len(want) {
		t.Fatalf("expected %d notifications, got %v", len(want), flips)
	}
	for i := range want {
		if flips[i] != want[i] {
			t.Errorf("notification %d: expected %v, got %v", i, want[i], flips[i])
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnecting, "CONNECTING"},
		{StateConnected, "CONNECTED"},
		{StateClosed, "CLOSED"},
		{State(42), "UNKNOWN(42)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	for _, s := range []State{StateDisconnected, StateConnecting, StateConnected} {
		if s.IsTerminal() {
			t.Errorf("%v should not be terminal", s)
		}
	}
	if !StateClosed.IsTerminal() {
		t.Error("CLOSED should be terminal")
	}
}

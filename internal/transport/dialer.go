package transport

import (
	"context"

	"github.com/gorilla/websocket"
)

// Conn is a single live subscription to the transcript source.
type Conn interface {
	// ReadMessage blocks until the next message payload or a read failure.
	ReadMessage() ([]byte, error)

	// Close tears the subscription down. Safe to call more than once.
	Close() error
}

// Dialer establishes subscriptions. Production uses the WebSocket dialer;
// tests inject fakes.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer dials the transcript source over WebSocket.
type WebSocketDialer struct{}

// Dial opens a WebSocket connection to the given endpoint.
func (WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, payload, err := c.conn.ReadMessage()
	return payload, err
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

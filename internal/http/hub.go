package http

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"transcript-bridge-service/internal/observability/metrics"
	"transcript-bridge-service/internal/transcript"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Viewer clients connect from arbitrary local origins
	},
}

// Hub rebroadcasts reconciled state snapshots to connected viewer clients.
// It implements transcript.Observer; each accumulator notification is
// forwarded to every client as one JSON snapshot.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan transcript.State
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewHub creates a hub. Run must be started before state changes arrive.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan transcript.State, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		log:        log,
		metrics:    metrics.DefaultMetrics,
	}
}

// OnStateChange implements transcript.Observer. It never blocks the
// reconciliation path; if the hub is backed up the snapshot is dropped,
// the next one supersedes it anyway.
func (h *Hub) OnStateChange(s transcript.State) {
	select {
	case h.broadcast <- s:
	case <-h.done:
	default:
	}
}

// Run owns the client set. Call in its own goroutine; stops on Close.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			return

		case conn := <-h.register:
			h.clients[conn] = true
			h.metrics.RecordHubClient(1)
			h.log.Info().Int("total", len(h.clients)).Msg("Viewer client connected")

		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				h.metrics.RecordHubClient(-1)
			}
			h.log.Info().Int("total", len(h.clients)).Msg("Viewer client disconnected")

		case state := <-h.broadcast:
			h.metrics.RecordHubBroadcast()
			for conn := range h.clients {
				if err := conn.WriteJSON(state); err != nil {
					h.log.Warn().Err(err).Msg("Viewer write failed, dropping client")
					conn.Close()
					delete(h.clients, conn)
					h.metrics.RecordHubClient(-1)
				}
			}
		}
	}
}

// Close stops the run loop and disconnects all clients. Idempotent.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// ServeWS upgrades an HTTP request to a viewer WebSocket connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	// Keep the connection alive and detect disconnects; inbound frames
	// from viewers are ignored.
	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.done:
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// Package http exposes the reconciled transcript over a small API and a
// WebSocket rebroadcast hub.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"transcript-bridge-service/internal/session"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(ctrl *session.Controller, hub *Hub) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/transcript", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, transcriptResponse{
				FullText: ctrl.FullText(),
				State:    ctrl.Snapshot(),
			})
		})

		r.Post("/clear", func(w http.ResponseWriter, _ *http.Request) {
			ctrl.Clear()
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/session", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, ctrl.Info())
		})

		// Live state snapshots over WebSocket
		r.Get("/stream", hub.ServeWS)
	})

	return r
}

type transcriptResponse struct {
	FullText string `json:"fullText"`
	State    any    `json:"state"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already gone; nothing useful left to do.
		return
	}
}

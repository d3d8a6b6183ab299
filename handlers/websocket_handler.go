package handlers

import (
	"log/slog"
	"net/http"

	"github.com/fedeportes/torneo-engine/brackets"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict Origin to the configured frontend hosts before exposing
	// this publicly.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub *brackets.Hub
}

func NewWebSocketHandler(hub *brackets.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs subscribes a client to the live updates of one phase.
// Clients connect to /ws/phases/{phaseID}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	phaseID := chi.URLParam(r, "phaseID")
	if phaseID == "" {
		http.Error(w, "missing phaseID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade websocket connection", slog.String("phase_id", phaseID), slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: phaseID,
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

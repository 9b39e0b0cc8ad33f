package handlers

import (
	"net/http"
	"time"

	"chat-coordinator/services"
	"chat-coordinator/ws"
)

type ChatHandler struct {
	hub      *ws.Hub
	rooms    *services.RoomService
	sessions *services.SessionService
}

func NewChatHandler(h *ws.Hub, r *services.RoomService, s *services.SessionService) *ChatHandler {
	return &ChatHandler{hub: h, rooms: r, sessions: s}
}

// Rooms lists every room with its current members.
func (h *ChatHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	respondWithSuccess(w, h.rooms.ListRooms())
}

func (h *ChatHandler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	respondWithSuccess(w, h.sessions.OnlineUsers())
}

// WS upgrades the connection. Identity is established afterwards by the
// authenticate event, not by the upgrade request.
func (h *ChatHandler) WS(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}

func (h *ChatHandler) Health(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"clients":   h.hub.ClientCount(),
	})
}

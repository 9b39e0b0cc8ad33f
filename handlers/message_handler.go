package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chat-coordinator/services"

	"github.com/gorilla/mux"
)

type MessageHandler struct {
	svc *services.MessageService
}

func NewMessageHandler(s *services.MessageService) *MessageHandler {
	return &MessageHandler{svc: s}
}

// ListMessages serves the trailing window of a room's history.
// GET /api/rooms/{id}/messages?limit=N
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	if roomID == "" {
		respondWithError(w, "Missing parameter", "room id is required", http.StatusBadRequest)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			respondWithError(w, "Invalid parameter", "limit must be a positive number", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	msgs, err := h.svc.List(roomID, limit)
	if errors.Is(err, services.ErrRoomNotFound) {
		respondWithError(w, "Not found", err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		respondWithError(w, "Failed to fetch messages", err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithSuccess(w, msgs)
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Routes bundles the handlers mounted by NewRouter.
type Routes struct {
	Auth     *AuthHandler
	Chat     *ChatHandler
	Messages *MessageHandler
	Files    *FileHandler
}

func NewRouter(rt Routes, origins []string, log *slog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(CORSMiddleware(origins)), mux.MiddlewareFunc(LoggingMiddleware(log)))

	r.HandleFunc("/health", rt.Chat.Health).Methods(http.MethodGet)
	r.HandleFunc("/ws", rt.Chat.WS).Methods(http.MethodGet)

	r.HandleFunc("/upload", rt.Files.Upload).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/uploads/{name}", rt.Files.Serve).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rooms", rt.Auth.WithAuth(rt.Chat.Rooms)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/rooms/{id}/messages", rt.Auth.WithAuth(rt.Messages.ListMessages)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/users/online", rt.Auth.WithAuth(rt.Chat.OnlineUsers)).Methods(http.MethodGet, http.MethodOptions)

	return r
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"chat-coordinator/services"
)

// AuthHandler guards the REST read endpoints with the same tokens the
// websocket authenticate event hands out.
type AuthHandler struct {
	tokens services.TokenIssuer
}

func NewAuthHandler(t services.TokenIssuer) *AuthHandler { return &AuthHandler{tokens: t} }

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func (h *AuthHandler) WithAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			respondWithError(w, "Unauthorized", "Missing Authorization header", http.StatusUnauthorized)
			return
		}
		uid, uname, err := h.tokens.ParseToken(token)
		if err != nil {
			respondWithError(w, "Unauthorized", "Invalid token", http.StatusUnauthorized)
			return
		}
		r.Header.Set("X-User-ID", uid)
		r.Header.Set("X-Username", uname)
		next(w, r)
	}
}

// bearerToken accepts both "Bearer <token>" and a bare token.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func respondWithError(w http.ResponseWriter, error, message string, statusCode int) {
	respondWithJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

func respondWithSuccess(w http.ResponseWriter, data interface{}) {
	respondWithJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

func respondWithJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

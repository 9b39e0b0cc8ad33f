package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"chat-coordinator/config"
	"chat-coordinator/models"
	"chat-coordinator/repository"

	"github.com/google/uuid"
)

// SessionService is the identity and session registry: it binds durable
// identities to live connections and tracks online status.
type SessionService struct {
	users       repository.UserRepository
	tokens      TokenIssuer
	maxUsername int
	now         func() time.Time
	log         *slog.Logger
}

func NewSessionService(users repository.UserRepository, tokens TokenIssuer, cfg *config.Config, log *slog.Logger) *SessionService {
	return &SessionService{
		users:       users,
		tokens:      tokens,
		maxUsername: cfg.MaxUsernameLength,
		now:         time.Now,
		log:         log.With("component", "sessions"),
	}
}

// Session is the outcome of a successful authentication.
type Session struct {
	User  models.User
	Token string
	// Superseded is the connection previously bound to this identity, if any.
	Superseded string
}

// Authenticate resolves a token or a fresh display name to an identity and
// binds it to connID. A token takes precedence over a name.
func (s *SessionService) Authenticate(connID, username, token string) (Session, error) {
	var id, name string
	switch {
	case token != "":
		uid, uname, err := s.tokens.ParseToken(token)
		if err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		id, name = uid, uname
	case strings.TrimSpace(username) != "":
		name = strings.TrimSpace(username)
		if s.maxUsername > 0 && utf8.RuneCountInString(name) > s.maxUsername {
			return Session{}, fmt.Errorf("%w: longer than %d characters", ErrInvalidUsername, s.maxUsername)
		}
		id = uuid.NewString()
	default:
		return Session{}, ErrMissingCredential
	}

	issued, err := s.tokens.CreateToken(id, name)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	user, prev := s.users.Bind(id, name, connID, s.now())
	s.log.Info("user authenticated", "user_id", id, "username", name, "conn_id", connID, "superseded", prev != "")
	return Session{User: user, Token: issued, Superseded: prev}, nil
}

// Disconnect marks the identity offline if connID is still its live
// connection. It reports false for a connection that was already superseded.
func (s *SessionService) Disconnect(userID, connID string) (models.User, bool) {
	user, ok := s.users.Unbind(userID, connID, s.now())
	if ok {
		s.log.Info("user offline", "user_id", userID, "username", user.Username)
	}
	return user, ok
}

// ConnectionOf returns the live connection bound to userID.
func (s *SessionService) ConnectionOf(userID string) (string, bool) {
	u, err := s.users.FindByID(userID)
	if err != nil || !u.Online || u.ConnID == "" {
		return "", false
	}
	return u.ConnID, true
}

func (s *SessionService) OnlineUsers() []models.User {
	return s.users.ListOnline()
}

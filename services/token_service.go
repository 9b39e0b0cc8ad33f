package services

import (
	"time"

	"chat-coordinator/config"
	"chat-coordinator/utils"
)

// TokenIssuer issues and verifies opaque session tokens.
type TokenIssuer interface {
	CreateToken(userID, username string) (string, error)
	ParseToken(token string) (userID, username string, err error)
}

type TokenService struct {
	secret string
	ttl    time.Duration
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret: cfg.JWTSecret,
		ttl:    time.Duration(cfg.JWTExpiry) * time.Hour,
	}
}

func (s *TokenService) CreateToken(userID, username string) (string, error) {
	return utils.GenerateJWT(s.secret, userID, username, s.ttl)
}

func (s *TokenService) ParseToken(token string) (string, string, error) {
	return utils.ParseJWT(s.secret, token)
}

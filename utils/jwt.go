package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "chat-coordinator"

func GenerateJWT(secret, userID, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"uid":   userID,
		"uname": username,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
		"iss":   tokenIssuer,
		"sub":   "session",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret, tokenStr string) (string, string, error) {
	if tokenStr == "" {
		return "", "", errors.New("token is empty")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", errors.New("invalid token")
	}

	if !token.Valid {
		return "", "", errors.New("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid claims")
	}

	uid, ok1 := claims["uid"].(string)
	uname, ok2 := claims["uname"].(string)
	if !ok1 || !ok2 || uid == "" {
		return "", "", errors.New("bad claims")
	}

	return uid, uname, nil
}

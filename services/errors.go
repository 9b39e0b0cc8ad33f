package services

import "errors"

// Authentication failures, surfaced to the originating connection.
var (
	ErrMissingCredential = errors.New("username or token required")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidUsername   = errors.New("invalid username")
)

// Routing failures: an event referenced something that does not resolve.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrMessageNotFound   = errors.New("message not found")
)

// Validation failures on otherwise routable events.
var (
	ErrInvalidRoomID      = errors.New("invalid room id")
	ErrEmptyMessage       = errors.New("empty content")
	ErrMessageTooLong     = errors.New("message too long")
	ErrInvalidMessageType = errors.New("invalid message type")
)

func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrInvalidUsername)
}

func IsRoutingError(err error) bool {
	return errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrRecipientNotFound) ||
		errors.Is(err, ErrMessageNotFound)
}

var ErrInvalidReaction = errors.New("invalid reaction")

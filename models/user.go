package models

import "time"

type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen"`

	// ConnID names the live connection bound to this identity; empty while offline.
	ConnID string `json:"-"`
}

// Sender is the identity snapshot stamped on a message at send time.
type Sender struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

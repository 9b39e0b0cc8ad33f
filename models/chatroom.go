package models

import "time"

// DefaultRoomID is created at startup and can never be left by joining elsewhere.
const DefaultRoomID = "general"

type ChatRoom struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomSnapshot is a room with its member list resolved to user records.
type RoomSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Users []User `json:"users"`
}

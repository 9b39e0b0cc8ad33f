package models

import "time"

type TypingEntry struct {
	RoomID    string
	UserID    string
	Username  string
	UpdatedAt time.Time
}

func TypingKey(roomID, userID string) string {
	return roomID + "\x00" + userID
}

func (e TypingEntry) Key() string {
	return TypingKey(e.RoomID, e.UserID)
}

package models

import (
	"sort"
	"strings"
	"time"
)

// Conversation is the private two-party analogue of a room.
type Conversation struct {
	ID           string    `json:"id"`
	Participants [2]string `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ConversationKey is the same for (a, b) and (b, a).
func ConversationKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

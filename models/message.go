package models

import "time"

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageFile  MessageType = "file"
	MessageImage MessageType = "image"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageFile, MessageImage:
		return true
	}
	return false
}

// Message is owned by exactly one room or conversation. Everything except
// Reactions and ReadBy is fixed once stored.
type Message struct {
	ID        string
	Content   string
	Sender    Sender
	Type      MessageType
	FileURL   string
	CreatedAt time.Time

	Reactions map[string]*ReactorSet
	ReadBy    *OrderedSet
}

func NewMessage(id, content string, sender Sender, typ MessageType, fileURL string, at time.Time) *Message {
	return &Message{
		ID:        id,
		Content:   content,
		Sender:    sender,
		Type:      typ,
		FileURL:   fileURL,
		CreatedAt: at,
		Reactions: make(map[string]*ReactorSet),
		ReadBy:    NewOrderedSet(),
	}
}

// MessageView is the outward-facing copy of a Message.
type MessageView struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	Sender    Sender           `json:"sender"`
	Type      MessageType      `json:"type"`
	FileURL   string           `json:"fileUrl,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Reactions ReactionSnapshot `json:"reactions"`
	ReadBy    []string         `json:"readBy"`
}

func (m *Message) View() MessageView {
	return MessageView{
		ID:        m.ID,
		Content:   m.Content,
		Sender:    m.Sender,
		Type:      m.Type,
		FileURL:   m.FileURL,
		Timestamp: m.CreatedAt,
		Reactions: m.ReactionSnapshot(),
		ReadBy:    m.ReadBy.Items(),
	}
}

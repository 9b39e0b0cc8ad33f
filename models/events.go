package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Envelope is the frame shape in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names.
const (
	EventAuthenticate       = "authenticate"
	EventJoinRoom           = "join_room"
	EventSendMessage        = "send_message"
	EventSendPrivateMessage = "send_private_message"
	EventGetPrivateMessages = "get_private_messages"
	EventTypingStart        = "typing_start"
	EventTypingStop         = "typing_stop"
	EventReactToMessage     = "react_to_message"
	EventMarkMessageRead    = "mark_message_read"
)

// InboundEvent is implemented only by the event types in this file.
type InboundEvent interface {
	EventName() string
	inbound()
}

type Authenticate struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type JoinRoom struct {
	RoomID string `json:"roomId"`
}

type SendMessage struct {
	RoomID  string      `json:"roomId"`
	Content string      `json:"content"`
	Type    MessageType `json:"type"`
	FileURL string      `json:"fileUrl"`
}

type SendPrivateMessage struct {
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
}

type GetPrivateMessages struct {
	UserID string `json:"userId"`
}

type TypingStart struct {
	RoomID string `json:"roomId"`
}

type TypingStop struct {
	RoomID string `json:"roomId"`
}

type ReactToMessage struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
	Reaction  string `json:"reaction"`
}

type MarkMessageRead struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
}

func (Authenticate) EventName() string       { return EventAuthenticate }
func (JoinRoom) EventName() string           { return EventJoinRoom }
func (SendMessage) EventName() string        { return EventSendMessage }
func (SendPrivateMessage) EventName() string { return EventSendPrivateMessage }
func (GetPrivateMessages) EventName() string { return EventGetPrivateMessages }
func (TypingStart) EventName() string        { return EventTypingStart }
func (TypingStop) EventName() string         { return EventTypingStop }
func (ReactToMessage) EventName() string     { return EventReactToMessage }
func (MarkMessageRead) EventName() string    { return EventMarkMessageRead }

func (Authenticate) inbound()       {}
func (JoinRoom) inbound()           {}
func (SendMessage) inbound()        {}
func (SendPrivateMessage) inbound() {}
func (GetPrivateMessages) inbound() {}
func (TypingStart) inbound()        {}
func (TypingStop) inbound()         {}
func (ReactToMessage) inbound()     {}
func (MarkMessageRead) inbound()    {}

var ErrUnknownEvent = errors.New("unknown event")

// DecodeInbound parses a raw client frame into its typed event.
func DecodeInbound(raw []byte) (InboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var ev InboundEvent
	switch env.Event {
	case EventAuthenticate:
		ev = decodeInto[Authenticate](env.Data)
	case EventJoinRoom:
		// join_room historically carried a bare room id string
		var id string
		if err := json.Unmarshal(env.Data, &id); err == nil {
			return normalize(JoinRoom{RoomID: id}), nil
		}
		ev = decodeInto[JoinRoom](env.Data)
	case EventSendMessage:
		ev = decodeInto[SendMessage](env.Data)
	case EventSendPrivateMessage:
		ev = decodeInto[SendPrivateMessage](env.Data)
	case EventGetPrivateMessages:
		ev = decodeInto[GetPrivateMessages](env.Data)
	case EventTypingStart:
		ev = decodeInto[TypingStart](env.Data)
	case EventTypingStop:
		ev = decodeInto[TypingStop](env.Data)
	case EventReactToMessage:
		ev = decodeInto[ReactToMessage](env.Data)
	case EventMarkMessageRead:
		ev = decodeInto[MarkMessageRead](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	if ev == nil {
		return nil, fmt.Errorf("decode %s payload", env.Event)
	}
	return normalize(ev), nil
}

// normalize trims room ids so that every later lookup compares them verbatim.
func normalize(ev InboundEvent) InboundEvent {
	switch e := ev.(type) {
	case JoinRoom:
		e.RoomID = strings.TrimSpace(e.RoomID)
		return e
	case SendMessage:
		e.RoomID = strings.TrimSpace(e.RoomID)
		return e
	case TypingStart:
		e.RoomID = strings.TrimSpace(e.RoomID)
		return e
	case TypingStop:
		e.RoomID = strings.TrimSpace(e.RoomID)
		return e
	case ReactToMessage:
		e.RoomID = strings.TrimSpace(e.RoomID)
		return e
	case MarkMessageRead:
		e.RoomID = strings.TrimSpace(e.RoomID)
		return e
	}
	return ev
}

// decodeInto returns nil when data is not a valid payload for T.
func decodeInto[T InboundEvent](data json.RawMessage) InboundEvent {
	var v T
	if len(data) == 0 {
		return v
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return v
}

// Outbound event names.
const (
	EventAuthenticated     = "authenticated"
	EventAuthError         = "auth_error"
	EventRoomsList         = "rooms_list"
	EventOnlineUsers       = "online_users"
	EventRoomMessages      = "room_messages"
	EventNewMessage        = "new_message"
	EventPrivateMessage    = "private_message"
	EventPrivateMessages   = "private_messages"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventUserJoined        = "user_joined"
	EventUserLeft          = "user_left"
	EventMessageReaction   = "message_reaction"
	EventMessageRead       = "message_read"
	EventUserOffline       = "user_offline"
)

type AuthenticatedPayload struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type AuthErrorPayload struct {
	Reason string `json:"reason"`
}

type RoomMessagesPayload struct {
	RoomID   string        `json:"roomId"`
	Messages []MessageView `json:"messages"`
}

type NewMessagePayload struct {
	RoomID  string      `json:"roomId"`
	Message MessageView `json:"message"`
}

// PrivateMessagePayload carries From for the recipient copy and To for the sender echo.
type PrivateMessagePayload struct {
	From    string      `json:"from,omitempty"`
	To      string      `json:"to,omitempty"`
	Message MessageView `json:"message"`
}

type PrivateMessagesPayload struct {
	UserID   string        `json:"userId"`
	Messages []MessageView `json:"messages"`
}

// PresencePayload is shared by typing, join/leave and offline notifications.
type PresencePayload struct {
	RoomID   string `json:"roomId,omitempty"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type MessageReactionPayload struct {
	MessageID string           `json:"messageId"`
	Reactions ReactionSnapshot `json:"reactions"`
}

type MessageReadPayload struct {
	MessageID string   `json:"messageId"`
	ReadBy    []string `json:"readBy"`
}

// EncodeOutbound builds a wire frame for an outbound event.
func EncodeOutbound(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationKeyIsOrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"5f1c-alice", "0b7e-bob"},
		{"same", "same"},
		{"", "x"},
	}
	for _, p := range pairs {
		assert.Equal(t, ConversationKey(p[0], p[1]), ConversationKey(p[1], p[0]), "pair %v", p)
	}
	assert.NotEqual(t, ConversationKey("a", "b"), ConversationKey("a", "c"))
}

func TestOrderedSetPreservesInsertionOrder(t *testing.T) {
	s := NewOrderedSet()
	assert.True(t, s.Add("u1"))
	assert.True(t, s.Add("u2"))
	assert.True(t, s.Add("u3"))
	assert.False(t, s.Add("u2"))

	assert.True(t, s.Remove("u1"))
	assert.False(t, s.Remove("u1"))
	s.Add("u1")

	assert.Equal(t, []string{"u2", "u3", "u1"}, s.Items())
	assert.True(t, s.Has("u3"))
	assert.Equal(t, 3, s.Len())
}

func TestToggleReactionPrunesEmptyEmoji(t *testing.T) {
	m := NewMessage("m1", "hi", Sender{ID: "u1", Username: "alice"}, MessageText, "", time.Now())

	snap := m.ToggleReaction("👍", "u1")
	assert.Equal(t, ReactionSnapshot{"👍": {"u1"}}, snap)

	snap = m.ToggleReaction("👍", "u1")
	assert.Empty(t, snap)
	_, ok := snap["👍"]
	assert.False(t, ok)

	// the placeholder survives internally
	require.Contains(t, m.Reactions, "👍")
	assert.Equal(t, 0, m.Reactions["👍"].Len())
}

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want InboundEvent
	}{
		{"authenticate", `{"event":"authenticate","data":{"username":"alice"}}`, Authenticate{Username: "alice"}},
		{"join object", `{"event":"join_room","data":{"roomId":"dev"}}`, JoinRoom{RoomID: "dev"}},
		{"join bare string", `{"event":"join_room","data":"dev"}`, JoinRoom{RoomID: "dev"}},
		{"send", `{"event":"send_message","data":{"roomId":"general","content":"hi","type":"image","fileUrl":"/uploads/x.png"}}`,
			SendMessage{RoomID: "general", Content: "hi", Type: MessageImage, FileURL: "/uploads/x.png"}},
		{"private", `{"event":"send_private_message","data":{"recipientId":"u2","content":"yo"}}`, SendPrivateMessage{RecipientID: "u2", Content: "yo"}},
		{"history", `{"event":"get_private_messages","data":{"userId":"u2"}}`, GetPrivateMessages{UserID: "u2"}},
		{"typing start", `{"event":"typing_start","data":{"roomId":"general"}}`, TypingStart{RoomID: "general"}},
		{"typing stop", `{"event":"typing_stop","data":{"roomId":"general"}}`, TypingStop{RoomID: "general"}},
		{"react", `{"event":"react_to_message","data":{"messageId":"m","roomId":"r","reaction":"🎉"}}`, ReactToMessage{MessageID: "m", RoomID: "r", Reaction: "🎉"}},
		{"read", `{"event":"mark_message_read","data":{"messageId":"m","roomId":"r"}}`, MarkMessageRead{MessageID: "m", RoomID: "r"}},
		{"padded join", `{"event":"join_room","data":" dev "}`, JoinRoom{RoomID: "dev"}},
		{"padded send", `{"event":"send_message","data":{"roomId":"\tdev ","content":" hi "}}`, SendMessage{RoomID: "dev", Content: " hi "}},
		{"padded typing", `{"event":"typing_start","data":{"roomId":" dev"}}`, TypingStart{RoomID: "dev"}},
		{"padded react", `{"event":"react_to_message","data":{"messageId":"m","roomId":"dev ","reaction":"👍"}}`, ReactToMessage{MessageID: "m", RoomID: "dev", Reaction: "👍"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeInbound([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
			assert.Equal(t, tt.want.EventName(), ev.EventName())
		})
	}
}

func TestDecodeInboundRejectsBadFrames(t *testing.T) {
	_, err := DecodeInbound([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeInbound([]byte(`{"event":"drop_tables"}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeInbound([]byte(`{"event":"send_message","data":{"roomId":42}}`))
	assert.Error(t, err)
}

func TestEncodeOutbound(t *testing.T) {
	frame, err := EncodeOutbound(EventUserTyping, PresencePayload{RoomID: "general", UserID: "u1", Username: "alice"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventUserTyping, env.Event)
	assert.JSONEq(t, `{"roomId":"general","userId":"u1","username":"alice"}`, string(env.Data))
}

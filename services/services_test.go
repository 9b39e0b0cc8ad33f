package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"chat-coordinator/config"
	"chat-coordinator/models"
	"chat-coordinator/repository"
	"chat-coordinator/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cfg      config.Config
	users    *repository.InMemoryUserRepo
	sessions *SessionService
	rooms    *RoomService
	messages *MessageService
	convos   *ConversationService
	typing   *TypingService
	react    *ReactionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Config{
		JWTSecret:           "test-secret",
		JWTExpiry:           1,
		MaxMessageLength:    200,
		MaxUsernameLength:   16,
		HistoryLimit:        50,
		TypingTTL:           5 * time.Second,
		TypingSweepInterval: 2 * time.Second,
	}
	log := utils.DiscardLogger()

	users := repository.NewInMemoryUserRepo()
	chats := repository.NewInMemoryChatRepo()
	members := repository.NewInMemoryMembershipRepo()
	msgs := repository.NewInMemoryMessageRepo()

	return &fixture{
		cfg:      cfg,
		users:    users,
		sessions: NewSessionService(users, NewTokenService(&cfg), &cfg, log),
		rooms:    NewRoomService(chats, members, msgs, users, &cfg, log),
		messages: NewMessageService(msgs, chats, members, users, &cfg, log),
		convos:   NewConversationService(repository.NewInMemoryConversationRepo(), repository.NewInMemoryMessageRepo(), users, &cfg, log),
		typing:   NewTypingService(repository.NewInMemoryTypingRepo(), &cfg, log),
		react:    NewReactionService(msgs, chats),
	}
}

func senderOf(u models.User) models.Sender {
	return models.Sender{ID: u.ID, Username: u.Username}
}

func (f *fixture) login(t *testing.T, conn, name string) models.User {
	t.Helper()
	sess, err := f.sessions.Authenticate(conn, name, "")
	require.NoError(t, err)
	return sess.User
}

func TestAuthenticateWithName(t *testing.T) {
	f := newFixture(t)

	sess, err := f.sessions.Authenticate("c1", "  alice ", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User.Username)
	assert.True(t, sess.User.Online)
	assert.NotEmpty(t, sess.User.ID)
	assert.NotEmpty(t, sess.Token)

	conn, ok := f.sessions.ConnectionOf(sess.User.ID)
	assert.True(t, ok)
	assert.Equal(t, "c1", conn)
}

func TestAuthenticateWithTokenKeepsIdentity(t *testing.T) {
	f := newFixture(t)
	first, err := f.sessions.Authenticate("c1", "alice", "")
	require.NoError(t, err)

	again, err := f.sessions.Authenticate("c2", "", first.Token)
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, again.User.ID)
	assert.Equal(t, "alice", again.User.Username)
	assert.Equal(t, "c1", again.Superseded)

	// the superseded connection going away does not take the user offline
	_, ok := f.sessions.Disconnect(first.User.ID, "c1")
	assert.False(t, ok)
	assert.Len(t, f.sessions.OnlineUsers(), 1)
}

func TestAuthenticateErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.sessions.Authenticate("c1", "", "")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.True(t, IsAuthError(err))

	_, err = f.sessions.Authenticate("c1", "   ", "")
	assert.ErrorIs(t, err, ErrMissingCredential)

	_, err = f.sessions.Authenticate("c1", "alice", "forged.token.value")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.sessions.Authenticate("c1", strings.Repeat("x", 17), "")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	assert.Empty(t, f.sessions.OnlineUsers())
}

func TestDisconnectMarksOffline(t *testing.T) {
	f := newFixture(t)
	u := f.login(t, "c1", "alice")

	got, ok := f.sessions.Disconnect(u.ID, "c1")
	require.True(t, ok)
	assert.False(t, got.Online)
	assert.Empty(t, f.sessions.OnlineUsers())

	_, ok = f.sessions.ConnectionOf(u.ID)
	assert.False(t, ok)

	// the identity outlives its connection
	kept, err := f.users.FindByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", kept.Username)
	assert.False(t, kept.Online)
}

func TestJoinRoomMovesMembership(t *testing.T) {
	f := newFixture(t)
	u := f.login(t, "c1", "alice")
	f.rooms.EnterDefault(u.ID)

	res, err := f.rooms.JoinRoom(u.ID, "dev")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "dev", res.Room.Name)
	assert.Empty(t, res.Left)

	res, err = f.rooms.JoinRoom(u.ID, "ops")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev"}, res.Left)

	assert.NotContains(t, f.rooms.Members("dev"), u.ID)
	assert.Contains(t, f.rooms.Members("ops"), u.ID)
	assert.Contains(t, f.rooms.Members(models.DefaultRoomID), u.ID)

	// the empty room is retained
	var ids []string
	for _, r := range f.rooms.ListRooms() {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, "dev")

	_, err = f.rooms.JoinRoom(u.ID, " ")
	assert.ErrorIs(t, err, ErrInvalidRoomID)
}

func TestJoinServesTrailingWindow(t *testing.T) {
	f := newFixture(t)
	u := f.login(t, "c1", "alice")
	_, err := f.rooms.JoinRoom(u.ID, "dev")
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		_, err := f.messages.PostMessage(senderOf(u), "dev", fmt.Sprintf("msg %d", i), "", "")
		require.NoError(t, err)
	}

	bob := f.login(t, "c2", "bob")
	res, err := f.rooms.JoinRoom(bob.ID, "dev")
	require.NoError(t, err)

	require.Len(t, res.History, 50)
	for i, m := range res.History {
		assert.Equal(t, fmt.Sprintf("msg %d", i+10), m.Content)
	}
}

func TestListRoomsResolvesMembers(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "c1", "alice")
	bob := f.login(t, "c2", "bob")
	f.rooms.EnterDefault(alice.ID)
	f.rooms.EnterDefault(bob.ID)
	_, err := f.rooms.JoinRoom(bob.ID, "dev")
	require.NoError(t, err)

	rooms := f.rooms.ListRooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "General", rooms[0].Name)
	assert.Len(t, rooms[0].Users, 2)
	require.Len(t, rooms[1].Users, 1)
	assert.Equal(t, "bob", rooms[1].Users[0].Username)
}

func TestPostMessageValidation(t *testing.T) {
	f := newFixture(t)
	u := f.login(t, "c1", "alice")
	sender := senderOf(u)

	tests := []struct {
		name    string
		room    string
		content string
		typ     models.MessageType
		file    string
		wantErr error
	}{
		{"unknown room", "nowhere", "hi", "", "", ErrRoomNotFound},
		{"empty text", models.DefaultRoomID, "  ", "", "", ErrEmptyMessage},
		{"too long", models.DefaultRoomID, strings.Repeat("a", 201), "", "", ErrMessageTooLong},
		{"bad type", models.DefaultRoomID, "hi", "video", "", ErrInvalidMessageType},
		{"file without caption", models.DefaultRoomID, "", models.MessageFile, "/uploads/a.pdf", nil},
		{"plain text", models.DefaultRoomID, "hi", "", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := f.messages.PostMessage(sender, tt.room, tt.content, tt.typ, tt.file)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, msg.ID)
			assert.Equal(t, sender, msg.Sender)
			assert.Equal(t, tt.file, msg.FileURL)
		})
	}
	assert.True(t, IsRoutingError(fmt.Errorf("wrapped: %w", ErrRoomNotFound)))
	assert.False(t, IsRoutingError(ErrEmptyMessage))
}

func TestSenderSnapshotSurvivesRename(t *testing.T) {
	f := newFixture(t)
	first, err := f.sessions.Authenticate("c1", "alice", "")
	require.NoError(t, err)
	_, err = f.messages.PostMessage(senderOf(first.User), models.DefaultRoomID, "hello", "", "")
	require.NoError(t, err)

	f.users.Bind(first.User.ID, "alice2", "c1", time.Now())

	history, err := f.messages.List(models.DefaultRoomID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].Sender.Username)
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "c1", "alice")
	bob := f.login(t, "c2", "bob")
	msg, err := f.messages.PostMessage(senderOf(alice), models.DefaultRoomID, "hi", "", "")
	require.NoError(t, err)

	readers, err := f.messages.MarkRead(bob.ID, models.DefaultRoomID, msg.ID)
	require.NoError(t, err)
	readers, err = f.messages.MarkRead(bob.ID, models.DefaultRoomID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, readers)

	_, err = f.messages.MarkRead(bob.ID, models.DefaultRoomID, "missing")
	assert.ErrorIs(t, err, ErrMessageNotFound)
	_, err = f.messages.MarkRead(bob.ID, "nowhere", msg.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestToggleReactionIsAnInvolution(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "c1", "alice")
	bob := f.login(t, "c2", "bob")
	msg, err := f.messages.PostMessage(senderOf(alice), models.DefaultRoomID, "hi", "", "")
	require.NoError(t, err)

	before, err := f.react.Toggle(bob.ID, models.DefaultRoomID, msg.ID, "🎉")
	require.NoError(t, err)

	snap, err := f.react.Toggle(alice.ID, models.DefaultRoomID, msg.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, snap["👍"])

	snap, err = f.react.Toggle(alice.ID, models.DefaultRoomID, msg.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, before, snap)
	assert.NotContains(t, snap, "👍")

	snap, err = f.react.Toggle(alice.ID, models.DefaultRoomID, msg.ID, "🎉")
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID, alice.ID}, snap["🎉"])
}

func TestToggleReactionErrors(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "c1", "alice")
	msg, err := f.messages.PostMessage(senderOf(alice), models.DefaultRoomID, "hi", "", "")
	require.NoError(t, err)

	_, err = f.react.Toggle(alice.ID, "nowhere", msg.ID, "👍")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = f.react.Toggle(alice.ID, models.DefaultRoomID, "missing", "👍")
	assert.ErrorIs(t, err, ErrMessageNotFound)
	_, err = f.react.Toggle(alice.ID, models.DefaultRoomID, msg.ID, "")
	assert.ErrorIs(t, err, ErrInvalidReaction)
}

func TestSendPrivate(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "c1", "alice")
	bob := f.login(t, "c2", "bob")

	d, err := f.convos.SendPrivate(senderOf(alice), bob.ID, "psst")
	require.NoError(t, err)
	assert.Equal(t, "c2", d.RecipientConn)
	assert.Equal(t, "psst", d.Message.Content)

	// both sides resolve the same conversation
	fromBob := f.convos.FetchHistory(bob.ID, alice.ID)
	fromAlice := f.convos.FetchHistory(alice.ID, bob.ID)
	require.Len(t, fromBob, 1)
	assert.Equal(t, fromAlice, fromBob)
	assert.Equal(t, d.Message.ID, fromBob[0].ID)

	_, err = f.convos.SendPrivate(senderOf(alice), "ghost", "hello?")
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestSendPrivateToOfflineRecipient(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "c1", "alice")
	bob := f.login(t, "c2", "bob")
	f.sessions.Disconnect(bob.ID, "c2")

	d, err := f.convos.SendPrivate(senderOf(alice), bob.ID, "are you there")
	require.NoError(t, err)
	assert.Empty(t, d.RecipientConn)
	assert.Len(t, f.convos.FetchHistory(bob.ID, alice.ID), 1)
}

func TestFetchHistoryOfNewConversationIsEmpty(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "c1", "alice")
	assert.Empty(t, f.convos.FetchHistory(alice.ID, "someone"))
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestTypingDuplicateStartIsNoop(t *testing.T) {
	f := newFixture(t)
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f.typing.now = clk.Now
	alice := models.Sender{ID: "u1", Username: "alice"}

	assert.True(t, f.typing.Start("general", alice))
	clk.Advance(3 * time.Second)
	assert.False(t, f.typing.Start("general", alice))

	// the repeat did not refresh: 3s + 2.5s is past the TTL of the first start
	clk.Advance(2500 * time.Millisecond)
	expired := f.typing.Sweep()
	require.Len(t, expired, 1)
	assert.Equal(t, "alice", expired[0].Username)
	assert.True(t, f.typing.Start("general", alice), "a start after expiry is new again")
}

func TestTypingSweepRespectsTTL(t *testing.T) {
	f := newFixture(t)
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f.typing.now = clk.Now

	f.typing.Start("general", models.Sender{ID: "u1", Username: "alice"})
	clk.Advance(5 * time.Second)
	assert.Empty(t, f.typing.Sweep(), "an entry exactly TTL old is still live")

	clk.Advance(time.Millisecond)
	assert.Len(t, f.typing.Sweep(), 1)
	assert.Empty(t, f.typing.Sweep())
}

func TestTypingStopIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.typing.Start("general", models.Sender{ID: "u1", Username: "alice"})
	f.typing.Start("dev", models.Sender{ID: "u1", Username: "alice"})

	_, ok := f.typing.Stop("general", "u1")
	assert.True(t, ok)
	_, ok = f.typing.Stop("general", "u1")
	assert.False(t, ok)

	all := f.typing.StopAll("u1")
	require.Len(t, all, 1)
	assert.Equal(t, "dev", all[0].RoomID)
}

func TestTypingRunTicksUntilCancelled(t *testing.T) {
	f := newFixture(t)
	f.typing.ttl = 20 * time.Millisecond
	f.typing.interval = 10 * time.Millisecond
	f.typing.Start("general", models.Sender{ID: "u1", Username: "alice"})

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan models.TypingEntry, 4)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		f.typing.Run(ctx, func() {
			for _, e := range f.typing.Sweep() {
				got <- e
			}
		})
	}()

	select {
	case e := <-got:
		assert.Equal(t, "u1", e.UserID)
	case <-time.After(time.Second):
		t.Fatal("entry was not swept")
	}
	select {
	case e := <-got:
		t.Fatalf("unexpected second expiry for %v", e)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTypingRunSurvivesPanickingTick(t *testing.T) {
	f := newFixture(t)
	f.typing.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := make(chan struct{}, 4)
	go f.typing.Run(ctx, func() {
		select {
		case calls <- struct{}{}:
		default:
		}
		panic(errors.New("room vanished"))
	})

	<-calls
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("sweep stopped after a tick panic")
	}
}

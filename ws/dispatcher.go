package ws

import (
	"errors"
	"log/slog"

	"chat-coordinator/models"
	"chat-coordinator/services"
)

// Dispatcher is the single entry point for client events. Every event except
// authenticate needs a bound identity; events without one are dropped.
type Dispatcher struct {
	hub       *Hub
	sessions  *services.SessionService
	rooms     *services.RoomService
	messages  *services.MessageService
	convos    *services.ConversationService
	typing    *services.TypingService
	reactions *services.ReactionService
	log       *slog.Logger
}

func NewDispatcher(
	hub *Hub,
	sessions *services.SessionService,
	rooms *services.RoomService,
	messages *services.MessageService,
	convos *services.ConversationService,
	typing *services.TypingService,
	reactions *services.ReactionService,
	log *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		hub:       hub,
		sessions:  sessions,
		rooms:     rooms,
		messages:  messages,
		convos:    convos,
		typing:    typing,
		reactions: reactions,
		log:       log.With("component", "dispatcher"),
	}
}

func (d *Dispatcher) HandleEvent(c *Client, ev models.InboundEvent) {
	if auth, ok := ev.(models.Authenticate); ok {
		d.authenticate(c, auth)
		return
	}
	if c.userID == "" {
		d.log.Debug("dropping unauthenticated event", "event", ev.EventName(), "conn_id", c.id)
		return
	}

	var err error
	switch e := ev.(type) {
	case models.JoinRoom:
		err = d.joinRoom(c, e)
	case models.SendMessage:
		err = d.sendMessage(c, e)
	case models.SendPrivateMessage:
		err = d.sendPrivate(c, e)
	case models.GetPrivateMessages:
		d.privateHistory(c, e)
	case models.TypingStart:
		d.typingStart(c, e)
	case models.TypingStop:
		d.typingStop(c, e)
	case models.ReactToMessage:
		err = d.react(c, e)
	case models.MarkMessageRead:
		err = d.markRead(c, e)
	default:
		d.log.Warn("no handler for event", "event", ev.EventName())
	}
	switch {
	case err == nil:
	case services.IsRoutingError(err):
		// stale or unknown ids are not reported to the client
		d.log.Debug("event target not found", "event", ev.EventName(), "user_id", c.userID, "error", err)
	default:
		d.log.Debug("invalid event dropped", "event", ev.EventName(), "user_id", c.userID, "error", err)
	}
}

// HandleDisconnect runs the cross-component cleanup for a closed connection.
func (d *Dispatcher) HandleDisconnect(c *Client) {
	if c.userID == "" {
		return
	}
	d.signOut(c)
}

func (d *Dispatcher) signOut(c *Client) {
	userID, username := c.userID, c.username
	c.userID, c.username = "", ""

	if _, ok := d.sessions.Disconnect(userID, c.id); !ok {
		// another connection owns the identity now
		return
	}
	for _, e := range d.typing.StopAll(userID) {
		d.toRoom(e.RoomID, userID, models.EventUserStoppedTyping, models.PresencePayload{RoomID: e.RoomID, UserID: userID, Username: username})
	}
	for _, roomID := range d.rooms.LeaveAll(userID) {
		d.toRoom(roomID, userID, models.EventUserLeft, models.PresencePayload{RoomID: roomID, UserID: userID, Username: username})
	}
	d.toAll(models.EventUserOffline, models.PresencePayload{UserID: userID, Username: username})
	d.toAll(models.EventOnlineUsers, d.sessions.OnlineUsers())
	d.toAll(models.EventRoomsList, d.rooms.ListRooms())
}

// SweepTyping expires stale typing entries and tells their rooms. It must run
// on the hub goroutine; see Hub.Schedule.
func (d *Dispatcher) SweepTyping() {
	expired := d.typing.Sweep()
	if len(expired) == 0 {
		return
	}
	d.log.Debug("typing entries expired", "count", len(expired))
	d.expireTyping(expired)
}

// expireTyping tolerates entries whose room no longer has members.
func (d *Dispatcher) expireTyping(entries []models.TypingEntry) {
	for _, e := range entries {
		d.toRoom(e.RoomID, "", models.EventUserStoppedTyping, models.PresencePayload{RoomID: e.RoomID, UserID: e.UserID, Username: e.Username})
	}
}

func (d *Dispatcher) authenticate(c *Client, ev models.Authenticate) {
	sess, err := d.sessions.Authenticate(c.id, ev.Username, ev.Token)
	if err != nil {
		if services.IsAuthError(err) {
			d.log.Info("authentication rejected", "conn_id", c.id, "error", err)
		} else {
			d.log.Error("authentication failed", "conn_id", c.id, "error", err)
		}
		d.toConn(c, models.EventAuthError, models.AuthErrorPayload{Reason: authReason(err)})
		return
	}

	if c.userID != "" && c.userID != sess.User.ID {
		d.signOut(c)
	}
	if sess.Superseded != "" {
		if old, ok := d.hub.client(sess.Superseded); ok {
			old.userID, old.username = "", ""
			d.toConn(old, models.EventAuthError, models.AuthErrorPayload{Reason: "Session opened elsewhere"})
		}
	}
	user := sess.User
	c.userID, c.username = user.ID, user.Username

	joined := d.rooms.EnterDefault(user.ID)

	d.toConn(c, models.EventAuthenticated, models.AuthenticatedPayload{Token: sess.Token, User: user})
	d.toAll(models.EventRoomsList, d.rooms.ListRooms())
	d.toAll(models.EventOnlineUsers, d.sessions.OnlineUsers())
	d.toRoom(joined.Room.ID, user.ID, models.EventUserJoined, models.PresencePayload{RoomID: joined.Room.ID, UserID: user.ID, Username: user.Username})
	d.toConn(c, models.EventRoomMessages, models.RoomMessagesPayload{RoomID: joined.Room.ID, Messages: joined.History})
}

func authReason(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidToken):
		return "Invalid token"
	case errors.Is(err, services.ErrMissingCredential):
		return "Username or token required"
	case errors.Is(err, services.ErrInvalidUsername):
		return "Invalid username"
	default:
		return "Authentication failed"
	}
}

func (d *Dispatcher) joinRoom(c *Client, ev models.JoinRoom) error {
	res, err := d.rooms.JoinRoom(c.userID, ev.RoomID)
	if err != nil {
		return err
	}
	for _, roomID := range res.Left {
		d.toRoom(roomID, c.userID, models.EventUserLeft, models.PresencePayload{RoomID: roomID, UserID: c.userID, Username: c.username})
	}
	d.toConn(c, models.EventRoomMessages, models.RoomMessagesPayload{RoomID: res.Room.ID, Messages: res.History})
	d.toRoom(res.Room.ID, c.userID, models.EventUserJoined, models.PresencePayload{RoomID: res.Room.ID, UserID: c.userID, Username: c.username})
	d.toAll(models.EventRoomsList, d.rooms.ListRooms())
	return nil
}

func (d *Dispatcher) sendMessage(c *Client, ev models.SendMessage) error {
	msg, err := d.messages.PostMessage(d.sender(c), ev.RoomID, ev.Content, ev.Type, ev.FileURL)
	if err != nil {
		return err
	}
	d.toRoom(ev.RoomID, "", models.EventNewMessage, models.NewMessagePayload{RoomID: ev.RoomID, Message: msg})
	return nil
}

func (d *Dispatcher) sendPrivate(c *Client, ev models.SendPrivateMessage) error {
	out, err := d.convos.SendPrivate(d.sender(c), ev.RecipientID, ev.Content)
	if err != nil {
		return err
	}
	if out.RecipientConn != "" {
		d.toConnID(out.RecipientConn, models.EventPrivateMessage, models.PrivateMessagePayload{From: c.userID, Message: out.Message})
	}
	d.toConn(c, models.EventPrivateMessage, models.PrivateMessagePayload{To: ev.RecipientID, Message: out.Message})
	return nil
}

func (d *Dispatcher) privateHistory(c *Client, ev models.GetPrivateMessages) {
	msgs := d.convos.FetchHistory(c.userID, ev.UserID)
	d.toConn(c, models.EventPrivateMessages, models.PrivateMessagesPayload{UserID: ev.UserID, Messages: msgs})
}

func (d *Dispatcher) typingStart(c *Client, ev models.TypingStart) {
	if !d.typing.Start(ev.RoomID, d.sender(c)) {
		return
	}
	d.toRoom(ev.RoomID, c.userID, models.EventUserTyping, models.PresencePayload{RoomID: ev.RoomID, UserID: c.userID, Username: c.username})
}

func (d *Dispatcher) typingStop(c *Client, ev models.TypingStop) {
	if _, ok := d.typing.Stop(ev.RoomID, c.userID); !ok {
		return
	}
	d.toRoom(ev.RoomID, c.userID, models.EventUserStoppedTyping, models.PresencePayload{RoomID: ev.RoomID, UserID: c.userID, Username: c.username})
}

func (d *Dispatcher) react(c *Client, ev models.ReactToMessage) error {
	snap, err := d.reactions.Toggle(c.userID, ev.RoomID, ev.MessageID, ev.Reaction)
	if err != nil {
		return err
	}
	d.toRoom(ev.RoomID, "", models.EventMessageReaction, models.MessageReactionPayload{MessageID: ev.MessageID, Reactions: snap})
	return nil
}

func (d *Dispatcher) markRead(c *Client, ev models.MarkMessageRead) error {
	readers, err := d.messages.MarkRead(c.userID, ev.RoomID, ev.MessageID)
	if err != nil {
		return err
	}
	d.toRoom(ev.RoomID, c.userID, models.EventMessageRead, models.MessageReadPayload{MessageID: ev.MessageID, ReadBy: readers})
	return nil
}

func (d *Dispatcher) sender(c *Client) models.Sender {
	return models.Sender{ID: c.userID, Username: c.username}
}

func (d *Dispatcher) encode(event string, payload any) ([]byte, bool) {
	frame, err := models.EncodeOutbound(event, payload)
	if err != nil {
		d.log.Error("encode outbound event", "event", event, "error", err)
		return nil, false
	}
	return frame, true
}

func (d *Dispatcher) toConn(c *Client, event string, payload any) {
	d.toConnID(c.id, event, payload)
}

func (d *Dispatcher) toConnID(connID, event string, payload any) {
	if frame, ok := d.encode(event, payload); ok {
		d.hub.SendTo(connID, frame)
	}
}

// toRoom delivers to the live connection of every room member except the
// identity named by except.
func (d *Dispatcher) toRoom(roomID, except, event string, payload any) {
	members := d.rooms.Members(roomID)
	if len(members) == 0 {
		return
	}
	frame, ok := d.encode(event, payload)
	if !ok {
		return
	}
	for _, id := range members {
		if id == except {
			continue
		}
		if connID, online := d.sessions.ConnectionOf(id); online {
			d.hub.SendTo(connID, frame)
		}
	}
}

func (d *Dispatcher) toAll(event string, payload any) {
	if frame, ok := d.encode(event, payload); ok {
		d.hub.Broadcast(frame)
	}
}

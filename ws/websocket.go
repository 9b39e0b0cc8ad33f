package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"chat-coordinator/config"
	"chat-coordinator/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 30 * time.Second
	pongWait       = 300 * time.Second
	pingPeriod     = 240 * time.Second
	maxFrameSize   = 1 << 20
	sendBufferSize = 256
)

// EventHandler consumes decoded client events. The hub calls it from a single
// goroutine, one event at a time.
type EventHandler interface {
	HandleEvent(c *Client, ev models.InboundEvent)
	HandleDisconnect(c *Client)
}

type Hub struct {
	// connection id -> client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	// work that must run in order with client events
	tasks chan func()
	done  chan struct{}

	mu sync.RWMutex

	origins         []string
	eventsPerSecond int
	eventBurst      int
	log             *slog.Logger
}

type inbound struct {
	client *Client
	event  models.InboundEvent
}

type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	addr    string
	limiter *rate.Limiter

	// guarded by hub.mu
	closed bool

	// owned by the goroutine running the hub
	userID   string
	username string
}

func NewHub(cfg *config.Config, log *slog.Logger) *Hub {
	return &Hub{
		clients:         make(map[string]*Client),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		inbound:         make(chan inbound, sendBufferSize),
		tasks:           make(chan func()),
		done:            make(chan struct{}),
		origins:         cfg.AllowedOrigins,
		eventsPerSecond: cfg.EventsPerSecond,
		eventBurst:      cfg.EventBurst,
		log:             log.With("component", "hub"),
	}
}

func (c *Client) ID() string { return c.id }

// UserID is empty until the connection authenticates.
func (c *Client) UserID() string { return c.userID }

// Run serializes registration, teardown, scheduled tasks and every inbound
// event onto one goroutine until ctx is done.
func (h *Hub) Run(ctx context.Context, handler EventHandler) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.safely(c.id, "disconnect", func() { handler.HandleDisconnect(c) })
			h.removeClient(c)
		case in := <-h.inbound:
			h.safely(in.client.id, in.event.EventName(), func() { handler.HandleEvent(in.client, in.event) })
		case fn := <-h.tasks:
			h.safely("", "task", fn)
		}
	}
}

// Schedule runs fn on the Run goroutine, between two client events. It
// blocks until Run accepts fn and reports false once Run has stopped.
func (h *Hub) Schedule(fn func()) bool {
	select {
	case h.tasks <- fn:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) safely(connID, what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("event handler panicked", "event", what, "conn_id", connID, "panic", r)
		}
	}()
	fn()
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.id] = client
	h.log.Info("client connected", "conn_id", client.id, "addr", client.addr, "clients", len(h.clients))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !client.closed {
		client.closed = true
		close(client.send)
	}
	if h.clients[client.id] == client {
		delete(h.clients, client.id)
	}
	h.log.Info("client disconnected", "conn_id", client.id, "addr", client.addr, "clients", len(h.clients))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		if !c.closed {
			c.closed = true
			close(c.send)
		}
		delete(h.clients, id)
	}
}

// deliver must be called with h.mu held for writing. A client whose buffer is
// full is evicted rather than allowed to stall the fan-out.
func (h *Hub) deliver(c *Client, frame []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		h.log.Warn("evicting slow client", "conn_id", c.id, "user_id", c.userID)
		c.closed = true
		close(c.send)
		delete(h.clients, c.id)
		return false
	}
}

// SendTo queues frame for one connection.
func (h *Hub) SendTo(connID string, frame []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	return h.deliver(c, frame)
}

// Broadcast queues frame for every connection.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		h.deliver(c, frame)
	}
}

func (h *Hub) client(connID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	return c, ok
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	h.log.Warn("rejected websocket origin", "origin", origin, "addr", r.RemoteAddr)
	return false
}

func (h *Hub) newClient(conn *websocket.Conn, addr string) *Client {
	limit := rate.Limit(h.eventsPerSecond)
	if h.eventsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Client{
		id:      uuid.NewString(),
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		addr:    addr,
		limiter: rate.NewLimiter(limit, max(h.eventBurst, 1)),
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := h.newClient(conn, r.RemoteAddr)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump decodes frames and hands them to the hub; undecodable or
// rate-limited frames are dropped.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("read error", "conn_id", c.id, "error", err)
			}
			return
		}

		if !c.limiter.Allow() {
			c.hub.log.Debug("rate limited frame dropped", "conn_id", c.id)
			continue
		}

		ev, err := models.DecodeInbound(frame)
		if err != nil {
			c.hub.log.Debug("malformed frame dropped", "conn_id", c.id, "error", err)
			continue
		}

		select {
		case c.hub.inbound <- inbound{client: c, event: ev}:
		case <-c.hub.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log.Debug("write error", "conn_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debug("ping error", "conn_id", c.id, "error", err)
				return
			}
		}
	}
}

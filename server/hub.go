package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tetrisfold/tetris"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Spectators don't send anything but control frames.
	maxMessageSize = 512

	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Message is what spectators receive for every state of a session.
// terminal.Watch decodes the same JSON shape.
type Message struct {
	SessionID string       `json:"session_id"`
	Event     string       `json:"event"`
	State     tetris.State `json:"state"`
}

type spectator struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub streams the states of running sessions to websocket spectators.
type Hub struct {
	logger     *slog.Logger
	sessions   map[string]map[*spectator]bool
	broadcast  chan *Message
	register   chan *spectator
	unregister chan *spectator
	running    chan struct{}
	done       chan struct{}
}

func NewHub(l *slog.Logger) *Hub {
	if l == nil {
		l = slog.Default()
	}
	return &Hub{
		logger:     l,
		sessions:   make(map[string]map[*spectator]bool),
		broadcast:  make(chan *Message),
		register:   make(chan *spectator),
		unregister: make(chan *spectator),
		running:    make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is done. Every spectator is disconnected on
// return.
func (h *Hub) Run(ctx context.Context) {
	close(h.running)
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.registerSpectator(c)
		case c := <-h.unregister:
			h.unregisterSpectator(c)
		case m := <-h.broadcast:
			h.broadcastMessage(m)
		case <-ctx.Done():
			for _, spectators := range h.sessions {
				for c := range spectators {
					h.unregisterSpectator(c)
				}
			}
			return
		}
	}
}

// ServeWS upgrades the request and subscribes it to the session named by the
// session query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		http.Error(w, "missing session parameter", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &spectator{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: id,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Broadcast sends the state to every spectator of the session. It is a no-op
// before Run starts and once the hub has stopped.
func (h *Hub) Broadcast(sessionID string, s tetris.State) {
	m := &Message{SessionID: sessionID, Event: "state_update", State: s}
	if s.GameEnd {
		m.Event = "game_over"
	}
	select {
	case <-h.running:
	default:
		return
	}
	select {
	case h.broadcast <- m:
	case <-h.done:
	}
}

func (h *Hub) registerSpectator(c *spectator) {
	if h.sessions[c.sessionID] == nil {
		h.sessions[c.sessionID] = make(map[*spectator]bool)
	}
	h.sessions[c.sessionID][c] = true
	h.logger.Debug("spectator registered",
		slog.String("session", c.sessionID),
		slog.Int("spectators", len(h.sessions[c.sessionID])))
}

func (h *Hub) unregisterSpectator(c *spectator) {
	spectators, ok := h.sessions[c.sessionID]
	if !ok || !spectators[c] {
		return
	}
	delete(spectators, c)
	close(c.send)
	if len(spectators) == 0 {
		delete(h.sessions, c.sessionID)
	}
	h.logger.Debug("spectator unregistered",
		slog.String("session", c.sessionID),
		slog.Int("spectators", len(spectators)))
}

func (h *Hub) broadcastMessage(m *Message) {
	spectators, ok := h.sessions[m.SessionID]
	if !ok {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		h.logger.Error("unable to marshal message", slog.String("error", err.Error()))
		return
	}
	for c := range spectators {
		select {
		case c.send <- data:
		default:
			// slow spectators are dropped.
			h.unregisterSpectator(c)
		}
	}
}

func (c *spectator) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint: errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("spectator read failed", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *spectator) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint: errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint: errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint: errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

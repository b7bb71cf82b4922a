package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/swimref/roster/internal/application"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 32
)

// eventNotification is the envelope event name for pushed notifications.
const eventNotification = "notification"

// Envelope is the websocket frame written to clients.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks websocket connections by user id and pushes toasts to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[string]*client
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type client struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan Envelope
}

// NewHub returns an empty hub. checkOrigin may be nil to accept any origin.
func NewHub(logger *slog.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		clients: make(map[string]map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger.With("component", "notify.Hub"),
	}
}

// Deliver pushes each notification whose recipient allows toasts to that
// recipient's open connections. Slow clients drop frames.
func (h *Hub) Deliver(_ context.Context, deliveries []application.Delivery) error {
	for _, d := range deliveries {
		if !Allows(d.Recipient.Preferences, d.Notification.Category, ChannelToast) {
			continue
		}
		h.SendToUser(d.Notification.RecipientID, NewMessage(d.Notification))
	}
	return nil
}

// SendToUser pushes msg to every connection of userID.
func (h *Hub) SendToUser(userID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	env := Envelope{Event: eventNotification, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients[userID] {
		select {
		case c.send <- env:
		default:
			h.logger.Warn("client send buffer full, dropping notification", "user_id", userID, "client_id", c.id)
		}
	}
}

// ConnectionCount returns the number of open connections of userID.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// ServeWS upgrades the request and keeps the connection registered for
// userID until the client goes away. Authentication is the caller's job.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan Envelope, sendBuffer),
	}
	h.register(c)
	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[string]*client)
	}
	h.clients[c.userID][c.id] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", "user_id", c.userID, "client_id", c.id)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		if _, ok := set[c.id]; ok {
			delete(set, c.id)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client disconnected", "user_id", c.userID, "client_id", c.id)
}

// readPump discards client frames; it only exists to process pongs and
// detect disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

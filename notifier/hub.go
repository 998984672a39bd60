package notifier

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventNewNotification is the event name pushed for every created notification
const EventNewNotification = "new_notification"

const (
	defaultPongWait = 60 * time.Second
	writeWait       = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Pusher delivers an event to a connected user
type Pusher interface {
	Push(userID, event string, data interface{}) bool
}

type client struct {
	conn *websocket.Conn
	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

// Hub keeps one websocket connection per connected user. Connections that do
// not answer a ping within PongWait are dropped.
type Hub struct {
	PongWait   time.Duration
	PingPeriod time.Duration

	clients map[string]*client
	mutex   sync.Mutex
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{
		PongWait:   defaultPongWait,
		PingPeriod: defaultPongWait * 9 / 10,
		clients:    make(map[string]*client),
	}
}

func (c *client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (h *Hub) ping(userID string, c *client, done <-chan struct{}) {
	ticker := time.NewTicker(h.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				zap.S().Debugw("websocket ping failed", "userId", userID, "error", err)
				return
			}
		}
	}
}

// Serve upgrades the request and registers the connection for userID until
// the client goes away. A later connection for the same user replaces the
// earlier one.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade error", "error", err)
		return
	}

	c := &client{conn: conn}
	h.mutex.Lock()
	if old, ok := h.clients[userID]; ok {
		old.conn.Close()
	}
	h.clients[userID] = c
	h.mutex.Unlock()
	zap.S().Debugw("user connected to notifications", "userId", userID)

	_ = conn.SetReadDeadline(time.Now().Add(h.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.PongWait))
	})
	done := make(chan struct{})
	go h.ping(userID, c, done)

	// keep reading so close frames and pongs are handled
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	close(done)
	h.remove(userID, c)
	zap.S().Debugw("user disconnected from notifications", "userId", userID)
}

func (h *Hub) remove(userID string, c *client) {
	h.mutex.Lock()
	if h.clients[userID] == c {
		delete(h.clients, userID)
	}
	h.mutex.Unlock()
	c.conn.Close()
}

// Connected reports whether userID has a live connection
func (h *Hub) Connected(userID string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	_, ok := h.clients[userID]
	return ok
}

// Push writes an event to userID if connected. It returns false when the user
// is offline or the write failed.
func (h *Hub) Push(userID, event string, data interface{}) bool {
	h.mutex.Lock()
	c, exists := h.clients[userID]
	h.mutex.Unlock()
	if !exists {
		return false
	}

	payload, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		zap.S().Errorw("failed to encode notification event", "userId", userID, "error", err)
		return false
	}
	if err := c.write(websocket.TextMessage, payload); err != nil {
		zap.S().Warnw("error sending notification", "userId", userID, "error", err)
		h.remove(userID, c)
		return false
	}
	return true
}

// Package realtime fans out fire-and-forget events to websocket clients.
package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"loanmvp/internal/shared/server/respond"
	"loanmvp/internal/shared/telemetry"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 50 * time.Second
)

// Message is the wire shape of every broadcast.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	user  string
	rooms []string
}

func (c *client) in(room string) bool {
	for _, r := range c.rooms {
		if r == room {
			return true
		}
	}
	return false
}

// Hub tracks connected clients. Delivery is best effort: a client whose
// send buffer is full is disconnected rather than blocking the publisher.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger

	// LoanAccess gates loan rooms; when nil only staff may join them.
	LoanAccess LoanAccess
}

// NewHub constructs a Hub. An empty origin list accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = struct{}{}
		}
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     telemetry.Logger().Named("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(origins) == 0 {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// PublishTo broadcasts to clients joined to room. There is no global
// broadcast: an empty room reaches nobody.
func (h *Hub) PublishTo(room, event string, payload any) {
	if room == "" {
		return
	}
	data, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		h.log.Warn("encode event", zap.String("event", event), zap.Error(err))
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if !c.in(room) {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Info("dropping slow client", zap.String("user_id", c.user))
		h.remove(c)
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler upgrades GET /ws?token=<jwt>[&room=loan:<id>] to a websocket
// connection. The socket always joins the caller's own user room.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principalFromRequest(c.Request)
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		rooms, err := h.rooms(c.Request.Context(), p, strings.TrimSpace(c.Query("room")))
		if err != nil {
			h.log.Info("room refused", zap.String("user_id", p.UserID), zap.String("room", c.Query("room")))
			respond.Error(c, http.StatusForbidden, "forbidden", "not allowed to join this room", nil)
			return
		}

		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn("upgrade failed", zap.Error(err))
			return
		}
		cl := &client{
			conn:  conn,
			send:  make(chan []byte, sendBuffer),
			user:  p.UserID,
			rooms: rooms,
		}
		h.add(cl)
		go h.writePump(cl)
		h.readPump(cl)
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readPump discards inbound frames; it exists to observe close and pong frames.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
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
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

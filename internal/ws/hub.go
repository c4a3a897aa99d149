// README: Websocket hub: live in-app delivery of notifications per user.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"uride/internal/identity"
	"uride/internal/modules/notify"
	"uride/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type client struct {
	actor identity.Actor
	conn  *websocket.Conn
	mu    sync.Mutex
}

func (c *client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub tracks live websocket connections by user. It implements the
// notification Sink contract: directed messages go to the recipient's
// connections, broadcasts go to every connection with the matching role.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{log: log, clients: make(map[*client]struct{})}
}

type wsEvent struct {
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Send delivers msg to connected recipients. Delivery is best effort: a
// failed write drops that connection and the error propagates to the caller
// for logging only.
func (h *Hub) Send(_ context.Context, msg notify.Message) error {
	event := wsEvent{Title: msg.Title, Body: msg.Body, Type: msg.Type, Payload: msg.Payload}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if msg.RecipientID != "" {
			if c.actor.ID == msg.RecipientID {
				targets = append(targets, c)
			}
		} else if c.actor.Role == msg.Recipient {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	var lastErr error
	for _, c := range targets {
		if err := c.write(event); err != nil {
			lastErr = err
			h.drop(c)
		}
	}
	return lastErr
}

// Handler upgrades an authenticated request to a websocket connection and
// keeps it registered until the peer goes away.
func (h *Hub) Handler(c *gin.Context) {
	actor, err := identity.FromContext(c.Request.Context())
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "user_id", actor.ID, "error", err)
		return
	}

	cl := &client{actor: actor, conn: conn}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.log.Info("websocket connected", "user_id", actor.ID, "role", string(actor.Role))

	go h.readLoop(cl)
}

// readLoop discards inbound frames and tears the client down on error. The
// hub only pushes; reads exist to observe the close handshake.
func (h *Hub) readLoop(cl *client) {
	defer h.drop(cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	delete(h.clients, cl)
	h.mu.Unlock()
	if ok {
		cl.conn.Close()
		h.log.Info("websocket disconnected", "user_id", cl.actor.ID)
	}
}

// Connected reports how many connections a user currently holds.
func (h *Hub) Connected(userID types.ID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.actor.ID == userID {
			n++
		}
	}
	return n
}

package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/transport"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browsers connect from the frontend origin; the access token authenticates the socket
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte
	logger *slog.Logger
}

func (c *Client) readPump() {
	defer func() {
		c.hub.detach(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// clients only listen; anything they send is discarded
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// Authenticator resolves an access token into the caller.
type Authenticator interface {
	Authenticated(ctx context.Context, accessToken string) (*coreUser.Principal, error)
}

type Handler struct {
	*transport.BaseHandler
	hub  *Hub
	auth Authenticator
}

func NewHandler(baseHandler *transport.BaseHandler, hub *Hub, auth Authenticator) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		hub:         hub,
		auth:        auth,
	}
}

// ServeWS upgrades an authenticated request. Browsers cannot set headers on websocket
// handshakes, so the access token travels in the query string.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = h.ExtractTokenFromHeader(r)
	}
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing token")
		return
	}

	principal, err := h.auth.Authenticated(r.Context(), token)
	if err != nil {
		h.Logger.Warn("ServeWS: connection rejected", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("ServeWS: upgrade failed", "error", err, "user_id", principal.ID)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: principal.ID,
		send:   make(chan []byte, 256),
		logger: h.Logger,
	}
	if !h.hub.attach(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

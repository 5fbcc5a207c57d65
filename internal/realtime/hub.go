package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/frahmantamala/expense-reporting/internal/notification"
)

const MessageTypeNotification = "notification"

// Envelope is the wire format both on the websocket and on the redis channel.
type Envelope struct {
	UserID int64                 `json:"user_id"`
	Type   string                `json:"type"`
	Data   notification.Response `json:"data"`
}

func NewEnvelope(userID int64, n notification.Response) Envelope {
	return Envelope{UserID: userID, Type: MessageTypeNotification, Data: n}
}

func DecodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(payload, &env)
	return env, err
}

type delivery struct {
	userID int64
	data   []byte
}

// Hub tracks live websocket clients per user.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	count      chan chan int
	done       chan struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client map until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]struct{})
			}
			h.clients[client.userID][client] = struct{}{}
			h.logger.Info("websocket client connected", "user_id", client.userID)
		case client := <-h.unregister:
			h.remove(client)
		case d := <-h.deliver:
			for client := range h.clients[d.userID] {
				select {
				case client.send <- d.data:
				default:
					// slow consumer
					h.remove(client)
				}
			}
		case reply := <-h.count:
			n := 0
			for _, set := range h.clients {
				n += len(set)
			}
			reply <- n
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[int64]map[*Client]struct{})
			h.logger.Info("websocket hub stopped")
			return
		}
	}
}

func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	h.logger.Info("websocket client disconnected", "user_id", client.userID)
}

// Deliver hands a payload to every connection of the user on this instance.
func (h *Hub) Deliver(ctx context.Context, userID int64, data []byte) error {
	select {
	case h.deliver <- delivery{userID: userID, data: data}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connections counts live clients; it needs Run to be active.
func (h *Hub) Connections(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
	case <-h.done:
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// LocalPusher delivers straight to this instance's hub.
type LocalPusher struct {
	hub *Hub
}

func NewLocalPusher(hub *Hub) *LocalPusher {
	return &LocalPusher{hub: hub}
}

func (p *LocalPusher) Push(ctx context.Context, userID int64, n notification.Response) error {
	data, err := json.Marshal(NewEnvelope(userID, n))
	if err != nil {
		return err
	}
	return p.hub.Deliver(ctx, userID, data)
}

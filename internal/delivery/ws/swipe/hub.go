package ws_swipe

import (
	"context"
	"log/slog"
	"sync"

	"github.com/humanbelnik/reelswap/internal/model"
)

const (
	EventMatchFound     = "MATCH_FOUND"
	EventImportProgress = "IMPORT_PROGRESS"
	EventImportItem     = "IMPORT_ITEM"
	EventError          = "ERROR"
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type roomEvent struct {
	roomCode model.RoomCode
	// users limits delivery to these names; empty means the whole room.
	users []string
	event Event
}

// Hub tracks the connections of every room and fans events out to
// them. A peer that cannot keep up loses its connection rather than
// blocking delivery to the others.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[model.RoomCode]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	events     chan roomEvent
}

type HubOption func(*Hub)

func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		logger:     slog.Default(),
		clients:    make(map[*Client]bool),
		rooms:      make(map[model.RoomCode]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan roomEvent, 64),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve dispatches registrations and events until cancelled. It
// satisfies suture's Service interface.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case ev := <-h.events:
			h.deliver(ev)
		}
	}
}

func (h *Hub) String() string {
	return "ws-hub"
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if _, exists := h.rooms[client.roomCode]; !exists {
		h.rooms[client.roomCode] = make(map[*Client]bool)
	}
	h.rooms[client.roomCode][client] = true

	h.logger.Info("client registered",
		slog.String("conn", client.id.String()),
		slog.String("user", client.userName),
		slog.String("room", string(client.roomCode)))
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.closeSend()

	if roomClients, exists := h.rooms[client.roomCode]; exists {
		delete(roomClients, client)
		if len(roomClients) == 0 {
			delete(h.rooms, client.roomCode)
		}
	}

	h.logger.Info("client unregistered",
		slog.String("conn", client.id.String()),
		slog.String("user", client.userName),
		slog.String("room", string(client.roomCode)))
}

func (h *Hub) deliver(ev roomEvent) {
	// Full lock: a slow consumer is dropped from the maps right here.
	h.mu.Lock()
	defer h.mu.Unlock()

	roomClients, exists := h.rooms[ev.roomCode]
	if !exists {
		return
	}

	var only map[string]struct{}
	if len(ev.users) > 0 {
		only = make(map[string]struct{}, len(ev.users))
		for _, u := range ev.users {
			only[u] = struct{}{}
		}
	}

	for client := range roomClients {
		if only != nil {
			if _, ok := only[client.userName]; !ok {
				continue
			}
		}
		if !client.trySend(ev.event) {
			// Slow consumer; drop it so the rest of the room is served.
			// Closing the connection makes its read pump wind down; the
			// later unregister is a no-op.
			client.closeSend()
			client.conn.Close()
			delete(h.clients, client)
			delete(roomClients, client)

			h.logger.Warn("slow client dropped",
				slog.String("conn", client.id.String()),
				slog.String("user", client.userName),
				slog.String("room", string(client.roomCode)))
		}
	}
}

// NotifyMatchFound pushes a match event to the matched users only.
func (h *Hub) NotifyMatchFound(code model.RoomCode, movieID string, users []string) {
	h.events <- roomEvent{
		roomCode: code,
		users:    users,
		event: Event{
			Type: EventMatchFound,
			Payload: map[string]interface{}{
				"movie_id": movieID,
				"users":    users,
			},
		},
	}
}

// NotifyImportProgress broadcasts batch progress to the whole room.
func (h *Hub) NotifyImportProgress(code model.RoomCode, count, total int) {
	h.events <- roomEvent{
		roomCode: code,
		event: Event{
			Type: EventImportProgress,
			Payload: map[string]interface{}{
				"count": count,
				"total": total,
			},
		},
	}
}

// NotifyImportItem broadcasts one enriched import result.
func (h *Hub) NotifyImportItem(code model.RoomCode, movie model.Movie) {
	h.events <- roomEvent{
		roomCode: code,
		event: Event{
			Type:    EventImportItem,
			Payload: movie,
		},
	}
}

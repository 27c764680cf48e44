package ws_swipe

import (
	"log/slog"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/humanbelnik/reelswap/internal/model"
	usecase_session "github.com/humanbelnik/reelswap/internal/usecase/session"
)

const (
	MessageJoin  = "join"
	MessageSwipe = "swipe"
)

// InboundMessage is the envelope for everything a peer sends.
type InboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinPayload struct {
	RoomCode string `json:"room_code"`
	UserName string `json:"user_name"`
}

type SwipePayload struct {
	MovieID string `json:"movie_id"`
	Action  string `json:"action"`
}

type Client struct {
	id       uuid.UUID
	conn     *websocket.Conn
	roomCode model.RoomCode
	userName string

	// sendMu guards send against a write racing the hub's close.
	sendMu  sync.Mutex
	send    chan Event
	dropped bool
}

// sendBufferSize bounds how far a peer may fall behind before the hub
// drops it.
const sendBufferSize = 32

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan Event, sendBufferSize),
	}
}

// readPump consumes inbound frames. The first frame must be a join; it
// attaches the connection to a session. Later frames are swipes.
// Malformed frames are logged and dropped, never fatal.
func (c *Client) readPump(hub *Hub, sessions *usecase_session.Usecase, logger *slog.Logger) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Warn("malformed ws frame dropped", slog.String("error", err.Error()))
			continue
		}

		switch msg.Type {
		case MessageJoin:
			c.handleJoin(hub, sessions, msg.Payload, logger)
		case MessageSwipe:
			c.handleSwipe(sessions, msg.Payload, logger)
		default:
			logger.Warn("unknown ws message dropped", slog.String("type", msg.Type))
		}
	}
}

func (c *Client) handleJoin(hub *Hub, sessions *usecase_session.Usecase, raw json.RawMessage, logger *slog.Logger) {
	if c.roomCode != model.EmptyRoomCode {
		// Already joined; a second join is a duplicate and ignored.
		return
	}

	var payload JoinPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Warn("malformed join dropped", slog.String("error", err.Error()))
		return
	}

	if _, err := sessions.Join(model.RoomCode(payload.RoomCode), payload.UserName); err != nil {
		logger.Warn("join rejected", slog.String("error", err.Error()))
		c.trySend(Event{Type: EventError, Payload: map[string]interface{}{"message": "invalid join"}})
		return
	}

	c.roomCode = model.RoomCode(payload.RoomCode)
	c.userName = payload.UserName
	hub.register <- c
}

func (c *Client) handleSwipe(sessions *usecase_session.Usecase, raw json.RawMessage, logger *slog.Logger) {
	if c.roomCode == model.EmptyRoomCode {
		logger.Warn("swipe before join dropped")
		return
	}

	var payload SwipePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Warn("malformed swipe dropped", slog.String("error", err.Error()))
		return
	}

	if err := sessions.Swipe(c.roomCode, c.userName, payload.MovieID, model.Action(payload.Action)); err != nil {
		logger.Warn("swipe rejected",
			slog.String("room", string(c.roomCode)),
			slog.String("user", c.userName),
			slog.String("error", err.Error()))
		c.trySend(Event{Type: EventError, Payload: map[string]interface{}{"message": "invalid swipe"}})
	}
}

// writePump serializes outbound events onto the wire.
func (c *Client) writePump() {
	defer c.conn.Close()

	for event := range c.send {
		raw, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return
		}
	}
}

// trySend queues an event without ever blocking the read pump. It
// reports false when the buffer is full or the hub already dropped the
// connection.
func (c *Client) trySend(event Event) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.dropped {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// closeSend shuts the outbound channel down exactly once. Only the hub
// calls it.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.dropped {
		return
	}
	c.dropped = true
	close(c.send)
}

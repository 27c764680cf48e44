package ws_swipe

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	usecase_session "github.com/humanbelnik/reelswap/internal/usecase/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Controller struct {
	hub      *Hub
	sessions *usecase_session.Usecase
	logger   *slog.Logger
}

type ControllerOption func(*Controller)

func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func NewController(hub *Hub, sessions *usecase_session.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		hub:      hub,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", c.serve)
}

// serve upgrades the request and runs the client pumps. One connection
// per user per room; identity arrives in the first ws frame.
func (c *Controller) serve(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(conn)
	go client.writePump()
	client.readPump(c.hub, c.sessions, c.logger)
}

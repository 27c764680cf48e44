package http_match

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/reelswap/internal/delivery/http/common"
	"github.com/humanbelnik/reelswap/internal/model"
	usecase_session "github.com/humanbelnik/reelswap/internal/usecase/session"
)

type Controller struct {
	sessions *usecase_session.Usecase
	logger   *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(sessions *usecase_session.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	rooms := router.Group("/rooms/:room_code")
	{
		rooms.GET("/matches", c.matches)
		rooms.POST("/matches/action", c.matchAction)
	}
}

type MatchesResponseDTO struct {
	Matches []model.Match `json:"matches"`
}

// Matches lists the requesting user's matches in the room.
// @Summary List a user's matches
// @Description Returns every movie the user mutually matched on in this room
// @Tags Matches
// @Produce json
// @Param room_code path string true "Room code"
// @Param user_name query string true "User name"
// @Success 200 {object} MatchesResponseDTO "Matches, possibly empty"
// @Failure 400 {object} http_common.ErrorResponse "Missing user name"
// @Failure 404 {object} http_common.ErrorResponse "Room not found"
// @Router /rooms/{room_code}/matches [get]
func (c *Controller) matches(ctx *gin.Context) {
	code := model.RoomCode(ctx.Param("room_code"))
	user := ctx.Query("user_name")
	if user == "" {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "user_name query parameter required",
		})
		return
	}

	matches, err := c.sessions.MatchesForUser(code, user)
	if err != nil {
		if errors.Is(err, usecase_session.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
			return
		}
		c.logger.Error("failed to list matches", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, MatchesResponseDTO{Matches: matches})
}

type MatchActionRequestDTO struct {
	MovieID  string `json:"movie_id" binding:"required"`
	Action   string `json:"action" binding:"required"`
	UserName string `json:"user_name" binding:"required"`
}

type MatchActionResponseDTO struct {
	Removed int `json:"removed"`
}

// MatchAction records a user's follow-up action on a matched movie and
// revokes that user's participation in the match.
// @Summary Act on a match
// @Description Removes the acting user's vote and match participation for the movie
// @Tags Matches
// @Accept json
// @Produce json
// @Param room_code path string true "Room code"
// @Param request body MatchActionRequestDTO true "Action"
// @Success 200 {object} MatchActionResponseDTO "Participations removed"
// @Failure 400 {object} http_common.ErrorResponse "Malformed request"
// @Failure 404 {object} http_common.ErrorResponse "Room not found"
// @Router /rooms/{room_code}/matches/action [post]
func (c *Controller) matchAction(ctx *gin.Context) {
	code := model.RoomCode(ctx.Param("room_code"))

	var req MatchActionRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: err.Error(),
		})
		return
	}

	removed, err := c.sessions.RemoveMatch(code, req.UserName, req.MovieID, model.Action(req.Action))
	if err != nil {
		switch {
		case errors.Is(err, usecase_session.ErrResourceNotFound):
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
		case errors.Is(err, usecase_session.ErrInvalidInput):
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: err.Error(),
			})
		default:
			c.logger.Error("failed to act on match", slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
				Message: "internal error",
			})
		}
		return
	}

	ctx.JSON(http.StatusOK, MatchActionResponseDTO{Removed: removed})
}

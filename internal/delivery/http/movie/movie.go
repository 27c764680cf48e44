package http_movie

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/reelswap/internal/delivery/http/common"
	"github.com/humanbelnik/reelswap/internal/model"
	usecase_movie "github.com/humanbelnik/reelswap/internal/usecase/movie"
)

type Controller struct {
	usecase *usecase_movie.Usecase
	logger  *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(usecase *usecase_movie.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		usecase: usecase,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/rooms/:room_code/cards", c.cards)
	movies := router.Group("/movies")
	{
		movies.GET("/:movie_id", c.movie)
		movies.POST("/:movie_id/refresh", c.refresh)
	}
}

type CardsRequestDTO struct {
	UserName string `form:"user_name" binding:"required"`
	Count    int    `form:"count,default=10" binding:"min=1,max=50"`
}

type CardsResponseDTO struct {
	Movies []model.Movie `json:"movies"`
}

// Cards returns the next batch of enriched swipe candidates.
// @Summary Next swipe cards
// @Description Returns enriched candidates the user has not swiped yet
// @Tags Movies
// @Produce json
// @Param room_code path string true "Room code"
// @Param user_name query string true "User name"
// @Param count query int false "Batch size"
// @Success 200 {object} CardsResponseDTO "Candidate batch"
// @Failure 400 {object} http_common.ErrorResponse "Malformed request"
// @Failure 404 {object} http_common.ErrorResponse "Room not found"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /rooms/{room_code}/cards [get]
func (c *Controller) cards(ctx *gin.Context) {
	code := model.RoomCode(ctx.Param("room_code"))

	var req CardsRequestDTO
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: err.Error(),
		})
		return
	}

	movies, err := c.usecase.Cards(ctx, code, req.UserName, req.Count)
	if err != nil {
		switch {
		case errors.Is(err, usecase_movie.ErrResourceNotFound):
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
		case errors.Is(err, usecase_movie.ErrInvalidInput):
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: err.Error(),
			})
		default:
			c.logger.Error("failed to fetch cards", slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
				Message: "internal error",
			})
		}
		return
	}

	ctx.JSON(http.StatusOK, CardsResponseDTO{Movies: movies})
}

// Movie serves the enriched detail of one indexed movie.
// @Summary Movie detail
// @Tags Movies
// @Produce json
// @Param movie_id path string true "Canonical movie id"
// @Success 200 {object} model.Movie "Enriched detail"
// @Failure 404 {object} http_common.ErrorResponse "Movie not indexed"
// @Router /movies/{movie_id} [get]
func (c *Controller) movie(ctx *gin.Context) {
	id := ctx.Param("movie_id")

	m, err := c.usecase.GetMovieByID(id)
	if err != nil {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
		return
	}

	ctx.JSON(http.StatusOK, m)
}

// Refresh forces a refetch of one title past the memoization caches.
// @Summary Refresh a movie
// @Description Busts the enrichment caches for the title and refetches it
// @Tags Movies
// @Produce json
// @Param movie_id path string true "Canonical movie id"
// @Success 200 {object} model.Movie "Fresh detail"
// @Failure 404 {object} http_common.ErrorResponse "Movie not indexed"
// @Failure 500 {object} http_common.ErrorResponse "Snapshot write failed"
// @Router /movies/{movie_id}/refresh [post]
func (c *Controller) refresh(ctx *gin.Context) {
	id := ctx.Param("movie_id")

	m, err := c.usecase.RefreshMovie(ctx, id)
	if err != nil {
		if errors.Is(err, usecase_movie.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
			return
		}
		c.logger.Error("failed to refresh movie", slog.String("movie", id), slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, m)
}

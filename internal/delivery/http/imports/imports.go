package http_imports

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/reelswap/internal/delivery/http/common"
	infra_listexport "github.com/humanbelnik/reelswap/internal/infra/listexport"
	"github.com/humanbelnik/reelswap/internal/model"
	usecase_imports "github.com/humanbelnik/reelswap/internal/usecase/imports"
)

type Controller struct {
	usecase *usecase_imports.Usecase
	logger  *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(usecase *usecase_imports.Usecase, opts ...ControllerOption) *Controller {
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
	router.POST("/rooms/:room_code/import", c.bulkImport)
}

type ImportRequestDTO struct {
	UserName string `json:"user_name" binding:"required"`
	// Exactly one of Content (inline CSV export) or ExportURL.
	Content   string `json:"content"`
	ExportURL string `json:"export_url"`
}

type ImportResponseDTO struct {
	Accepted bool `json:"accepted"`
	Total    int  `json:"total"`
}

// BulkImport accepts a list export and kicks off the background
// ingestion. Completion is streamed over the ws channel.
// @Summary Bulk import
// @Description Accepts inline export content or a remote export URL; progress arrives over the ws channel
// @Tags Imports
// @Accept json
// @Produce json
// @Param room_code path string true "Room code"
// @Param request body ImportRequestDTO true "Export source"
// @Success 202 {object} ImportResponseDTO "Accepted with total item count"
// @Failure 400 {object} http_common.ErrorResponse "Malformed request or unusable export"
// @Router /rooms/{room_code}/import [post]
func (c *Controller) bulkImport(ctx *gin.Context) {
	code := model.RoomCode(ctx.Param("room_code"))

	var req ImportRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: err.Error(),
		})
		return
	}

	var total int
	var err error
	switch {
	case req.Content != "":
		var items []model.MovieIdentity
		items, err = infra_listexport.Parse(strings.NewReader(req.Content))
		if err == nil {
			total, err = c.usecase.Accept(code, req.UserName, items)
		}
	case req.ExportURL != "":
		total, err = c.usecase.AcceptURL(ctx, code, req.UserName, req.ExportURL)
	default:
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "content or export_url required",
		})
		return
	}

	if err != nil {
		if errors.Is(err, usecase_imports.ErrInvalidInput) || errors.Is(err, usecase_imports.ErrExportUnusable) {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: err.Error(),
			})
			return
		}
		c.logger.Error("failed to accept import", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusAccepted, ImportResponseDTO{Accepted: true, Total: total})
}

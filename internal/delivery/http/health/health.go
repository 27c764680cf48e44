package http_health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TaskOutcomes reports background job counters for the health payload.
type TaskOutcomes interface {
	Outcomes() (succeeded, failed int)
}

type Controller struct {
	tasks TaskOutcomes
}

func New(tasks TaskOutcomes) *Controller {
	return &Controller{tasks: tasks}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/healthz", c.health)
}

func (c *Controller) health(ctx *gin.Context) {
	succeeded, failed := c.tasks.Outcomes()
	ctx.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"tasks_succeeded": succeeded,
		"tasks_failed":    failed,
	})
}

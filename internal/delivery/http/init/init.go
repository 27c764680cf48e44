package http_init

import (
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

type Controller interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// ControllerPool collects controllers and mounts them under the api
// prefix. The engine's recovery middleware keeps a handler panic from
// taking the process down.
type ControllerPool struct {
	pool   []Controller
	rg     *gin.RouterGroup
	engine *gin.Engine
}

func NewControllerPool() *ControllerPool {
	engine := gin.Default()
	rg := engine.Group(apiPrefix)
	return &ControllerPool{
		pool:   make([]Controller, 0, 10),
		rg:     rg,
		engine: engine,
	}
}

func (pool *ControllerPool) Register() {
	for _, c := range pool.pool {
		c.RegisterRoutes(pool.rg)
	}
}

// RunAll serves until the listener fails; the caller decides how the
// process winds down.
func (pool *ControllerPool) RunAll(port string) error {
	return pool.engine.Run(":" + port)
}

func (pool *ControllerPool) Add(c Controller) {
	pool.pool = append(pool.pool, c)
}

// Engine exposes the underlying engine for tests.
func (pool *ControllerPool) Engine() *gin.Engine {
	return pool.engine
}

package install

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers exposes the engine state over the REST API. The surface is
// read-only: installs are driven by shell actions and the background
// monitor, never by HTTP calls.
type Handlers struct {
	engine *Engine
}

func NewHandlers(engine *Engine) *Handlers {
	return &Handlers{engine: engine}
}

// RegisterRoutes registers status routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetStatus)
}

// GetStatus returns the current engine status.
// GET /api/v1/status
func (h *Handlers) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.GetStatus())
}

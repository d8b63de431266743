package history

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Attempts accumulate for the life of the install, so list requests are
// always bounded.
const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// Handlers exposes the attempt log over HTTP. The log is append-only;
// there is deliberately no delete route.
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
}

// List returns recent install attempts, newest first.
// GET /api/v1/history?limit=N
func (h *Handlers) List(c echo.Context) error {
	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	attempts, err := h.service.List(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": attempts,
		"count": len(attempts),
	})
}

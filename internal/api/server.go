// Package api serves the launcher's loopback HTTP surface: the status
// API the shell polls, the attempt history, and the log tail.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	apimw "github.com/zocopos/launcher/internal/api/middleware"
	"github.com/zocopos/launcher/internal/config"
	"github.com/zocopos/launcher/internal/history"
	"github.com/zocopos/launcher/internal/install"
	"github.com/zocopos/launcher/internal/scheduler"
)

// Server handles HTTP requests on the launcher's loopback address. The
// embedded shell page, its WebSocket feed, and the small status API all
// hang off this one listener.
type Server struct {
	echo   *echo.Echo
	logger zerolog.Logger
	cfg    *config.Config

	engine         *install.Engine
	historyService *history.Service
	sched          *scheduler.Scheduler
	logs           LogsProvider
}

// NewServer creates a new loopback server instance.
func NewServer(cfg *config.Config, engine *install.Engine, historyService *history.Service, sched *scheduler.Scheduler, logs LogsProvider, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:           e,
		logger:         logger,
		cfg:            cfg,
		engine:         engine,
		historyService: historyService,
		sched:          sched,
		logs:           logs,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware. There is no CORS layer:
// the shell page is served from this same loopback origin, and a
// cross-origin page has no business talking to the install engine.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())

	// The shell polls status for the whole life of an install, and every
	// log line is echoed back to the shell over the WebSocket. Routine
	// requests stay at debug so the live tail shows install progress
	// rather than poll noise.
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := s.logger.Debug()
			if v.Error != nil {
				evt = s.logger.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	// Compression helps the embedded shell page; the WebSocket upgrade
	// must pass through untouched.
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/healthz", s.healthCheck)

	// API v1 group
	api := s.echo.Group("/api/v1")

	// Install status routes
	install.NewHandlers(s.engine).RegisterRoutes(api.Group("/status"))

	// Install history routes
	history.NewHandlers(s.historyService).RegisterRoutes(api.Group("/history"))

	// Log routes
	logs := api.Group("/logs")
	logs.GET("", s.getRecentLogs)
	logs.GET("/download", s.downloadLog)
}

// Start starts the HTTP server.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance so the shell WebSocket and
// the embedded page can be mounted next to the API routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// healthCheck reports liveness plus the state of the background jobs.
func (s *Server) healthCheck(c echo.Context) error {
	resp := map[string]interface{}{
		"status": "ok",
	}
	if s.sched != nil {
		resp["jobs"] = s.sched.Status()
	}
	return c.JSON(http.StatusOK, resp)
}

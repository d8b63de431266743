package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/zocopos/launcher/internal/logger"
)

// LogsProvider is the slice of the logger the API needs: the in-memory
// tail and the location of the rotating file.
type LogsProvider interface {
	RecentLogs() []logger.LogEntry
	LogFilePath() string
}

// getRecentLogs returns the buffered log tail, oldest first. An optional
// limit keeps the shell's first paint cheap.
func (s *Server) getRecentLogs(c echo.Context) error {
	entries := s.logs.RecentLogs()
	if entries == nil {
		entries = []logger.LogEntry{}
	}

	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}

	return c.JSON(http.StatusOK, entries)
}

// downloadLog serves the active log file so a support ticket can carry it
// as an attachment.
func (s *Server) downloadLog(c echo.Context) error {
	path := s.logs.LogFilePath()
	if path == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}

	return c.Attachment(path, "launcher.log")
}

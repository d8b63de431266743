// Package middleware holds Echo middleware shared by the loopback server.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// shellCSP is written for the embedded status page: it carries its style
// and script inline in one HTML file, talks to /ws over a same-host
// WebSocket, and must never render inside another page's frame.
var shellCSP = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' 'unsafe-inline'",
	"style-src 'self' 'unsafe-inline'",
	"connect-src 'self' ws:",
	"img-src 'self' data:",
	"frame-ancestors 'none'",
}, "; ")

var staticHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"X-XSS-Protection":        "1; mode=block",
	"Referrer-Policy":         "no-referrer",
	"Content-Security-Policy": shellCSP,
}

// SecurityHeaders sets browser headers on every response. The shell page
// is only ever served to the local window, but the listener is a plain
// HTTP port and any local browser can reach it.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for name, value := range staticHeaders {
				h.Set(name, value)
			}

			// Status responses must never be cached, the shell polls them
			// while an install is running.
			if strings.HasPrefix(c.Request().URL.Path, "/api") {
				h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
				h.Set("Pragma", "no-cache")
			}

			return next(c)
		}
	}
}

package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route paths that bypass principal resolution and the
// tenant session.
var publicPaths = map[string]bool{
	"/health":                 true,
	"/health/db":              true,
	"/metrics":                true,
	"/api/v1/auth/login":      true,
	"/api/v1/auth/register":   true,
	"/api/v1/chatbot/webhook": true,
}

// AuthSkipper returns true for requests whose path should skip authentication.
func AuthSkipper(c echo.Context) bool {
	if publicPaths[c.Path()] {
		return true
	}
	return publicPaths[c.Request().URL.Path]
}

// IsPublicPath reports whether path bypasses authentication.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}

package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityConfig tunes SecurityHeaders per environment.
type SecurityConfig struct {
	// HSTS enables Strict-Transport-Security on requests that arrived over
	// https, directly or through a proxy setting X-Forwarded-Proto.
	HSTS bool
	// DownloadSuffixes marks routes that stream stored files. Their CSP adds
	// sandbox.
	DownloadSuffixes []string
}

// DefaultDownloadSuffixes covers attachment content and spreadsheet exports.
var DefaultDownloadSuffixes = []string{"/conteudo", "/export"}

// SecurityHeaders sets the response headers of a JSON API that also serves
// patient files. Nothing it returns may be stored by shared caches.
func SecurityHeaders(cfg SecurityConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cross-Origin-Resource-Policy", "same-site")
			h.Set("Cache-Control", "no-store")

			csp := "default-src 'none'; frame-ancestors 'none'"
			if isDownload(c.Request().URL.Path, cfg.DownloadSuffixes) {
				csp += "; sandbox"
			}
			h.Set("Content-Security-Policy", csp)

			if cfg.HSTS && c.Scheme() == "https" {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			return next(c)
		}
	}
}

func isDownload(path string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

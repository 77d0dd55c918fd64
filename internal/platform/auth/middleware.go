package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/odonto/odonto/internal/platform/apperr"
)

// Middleware resolves the bearer token into a principal and attaches it
// together with its empresa. Requests matched by skipper pass through.
func Middleware(resolver *Resolver, skipper middleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}

			token, err := bearerToken(c.Request().Header.Get("Authorization"))
			if err != nil {
				return err
			}

			p, err := resolver.Resolve(c.Request().Context(), token)
			if err != nil {
				return err
			}

			Attach(c, p)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.Unauthenticated("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", apperr.Unauthenticated("invalid authorization format")
	}
	return token, nil
}

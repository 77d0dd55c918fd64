package auth

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/odonto/odonto/internal/platform/apperr"
)

// RequireRole returns middleware that checks if the principal holds one of
// the given cargos. Admins always pass.
func RequireRole(cargos ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c)
			if p == nil {
				return apperr.Unauthenticated("authentication required")
			}
			if p.Cargo == CargoAdmin {
				return next(c)
			}
			for _, required := range cargos {
				if p.Cargo == required {
					return next(c)
				}
			}
			return apperr.Forbidden(fmt.Sprintf("required cargo: %s", strings.Join(cargos, " or ")))
		}
	}
}

// RequirePermission returns middleware that checks the principal's
// permission set for action on feature.
func RequirePermission(feature, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c)
			if p == nil {
				return apperr.Unauthenticated("authentication required")
			}
			if !p.Effective().Allows(feature, action) {
				return apperr.Forbidden(fmt.Sprintf("permission required: %s.%s", feature, action))
			}
			return next(c)
		}
	}
}

// Guards bundles the view/edit/delete middlewares of one feature.
type Guards struct {
	View, Edit, Delete echo.MiddlewareFunc
}

func For(feature string) Guards {
	return Guards{
		View:   RequirePermission(feature, ActionView),
		Edit:   RequirePermission(feature, ActionEdit),
		Delete: RequirePermission(feature, ActionDelete),
	}
}

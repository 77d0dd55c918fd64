package db

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/platform/tenant"
)

// TenantSession pins a pool connection to the request and sets
// app.empresa_id on it for row-level-security policies. It must run after
// the resolution middleware has attached the principal.
func TenantSession(pool *pgxpool.Pool, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			empresaID, err := tenant.Require(c)
			if err != nil {
				// Public routes carry no principal and use the pool directly.
				return next(c)
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			if _, err := conn.Exec(ctx, `SELECT set_config('app.empresa_id', $1, false)`, empresaID.String()); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "tenant resolution failed")
			}
			defer func() {
				// The request context may already be cancelled.
				if _, err := conn.Exec(context.Background(), `RESET app.empresa_id`); err != nil {
					logger.Warn().Err(err).Msg("reset tenant session")
				}
			}()

			ctx = tenant.WithID(ctx, empresaID)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("db", conn)

			return next(c)
		}
	}
}

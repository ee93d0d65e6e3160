package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORS sets permissive cross-origin headers on every response. Echo's
// built-in CORS middleware only answers requests that carry an Origin
// header, but gateway callbacks are origin-less server-to-server POSTs
// and the response contract includes the headers regardless.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowHeaders, "*")
			h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

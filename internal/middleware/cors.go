package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORS headers applied to every response.
const (
	CORSAllowOrigin  = "*"
	CORSAllowMethods = "GET, POST, PUT, DELETE"
	CORSAllowHeaders = "Content-Type"
)

// CORS is a response interceptor that adds permissive cross-origin headers to
// every response. The headers are set before the handler runs so they are part
// of a streamed response's initial header block and survive error responses.
// Preflight requests are answered directly with 204.
func CORS(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set(echo.HeaderAccessControlAllowOrigin, CORSAllowOrigin)
		h.Set(echo.HeaderAccessControlAllowMethods, CORSAllowMethods)
		h.Set(echo.HeaderAccessControlAllowHeaders, CORSAllowHeaders)

		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusNoContent)
		}
		return next(c)
	}
}

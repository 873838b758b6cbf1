package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/relay/web/src/templates/pages"
)

// HomeHandler handles requests for the home page.
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// HomeGet renders the built-in chat client.
func (h *HomeHandler) HomeGet(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return pages.Home().Render(c.Response())
}

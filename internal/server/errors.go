package server

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/relay/internal/handlers"
	"github.com/nfrund/relay/internal/middleware"
)

// setupErrorHandling installs an error handler that lets echo render its own
// HTTP errors and logs anything else with a stack trace before answering 500.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		logger := middleware.FromContext(c.Request().Context())
		logger.Error("Internal Server Error (Unhandled)",
			slog.String("error", err.Error()),
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.String("stack_trace", string(debug.Stack())),
		)

		if c.Response().Committed {
			return
		}
		if err := c.JSON(http.StatusInternalServerError, handlers.ErrorResponse{
			Code:    "internal_error",
			Message: "Internal server error.",
		}); err != nil {
			logger.Error("Failed to write error response", "error", err)
		}
	}
}

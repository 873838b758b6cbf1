package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/middleware"
)

// Submitter hands a validated message to the relay.
type Submitter interface {
	Submit(ctx context.Context, msg domain.Message) error
}

// MessageHandler handles the message ingress endpoint.
type MessageHandler struct {
	relay Submitter
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(relay Submitter) *MessageHandler {
	return &MessageHandler{relay: relay}
}

// MessagePost accepts a form-encoded chat message and publishes it. Delivery
// is best effort: the response is 200 with an empty body whether or not
// anyone is listening, and relay failures are only logged.
func (h *MessageHandler) MessagePost(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	params, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: "Invalid form body."})
	}
	for _, field := range messageFields {
		if _, ok := params[field]; !ok {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Code:    CodeValidation,
				Message: fmt.Sprintf("%s is required", field),
			})
		}
	}

	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: "Invalid request format."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Code: CodeValidation, Message: describeValidationError(err)})
	}

	if err := h.relay.Submit(ctx, req.ToDomain()); err != nil {
		logger.Warn("Failed to relay message", "room", req.Room, "error", err)
	}
	return c.NoContent(http.StatusOK)
}

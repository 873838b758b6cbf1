package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/relay/internal/hub"
)

// HealthHandler reports whether the hub is accepting messages.
type HealthHandler struct {
	hub *hub.Hub
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(h *hub.Hub) *HealthHandler {
	return &HealthHandler{hub: h}
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Subscribers int    `json:"subscribers"`
	Buffered    int    `json:"buffered"`
}

// HealthGet returns 200 while the hub is open and 503 once it has shut down.
func (h *HealthHandler) HealthGet(c echo.Context) error {
	resp := HealthResponse{
		Status:      "ok",
		Subscribers: h.hub.Subscribers(),
		Buffered:    h.hub.Len(),
	}
	if h.hub.Closed() {
		resp.Status = "shutting_down"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

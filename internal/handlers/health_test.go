package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/handlers"
	"github.com/nfrund/relay/internal/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthGet(t *testing.T) {
	h := hub.New()
	sub := h.Subscribe()
	defer sub.Close()
	_, err := h.Publish(domain.Message{Room: "lobby"})
	require.NoError(t, err)

	e := echo.New()
	handler := handlers.NewHealthHandler(h)

	get := func() (int, handlers.HealthResponse) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
		require.NoError(t, handler.HealthGet(c))
		var body handlers.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	code, body := get()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, handlers.HealthResponse{Status: "ok", Subscribers: 1, Buffered: 1}, body)

	h.Shutdown()
	code, body = get()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting_down", body.Status)
}

func TestHomeGet(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, handlers.NewHomeHandler().HomeGet(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "<!doctype html>")
	assert.Contains(t, rec.Body.String(), "/events")
}

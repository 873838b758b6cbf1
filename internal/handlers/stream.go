package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/relay/internal/hub"
	"github.com/nfrund/relay/internal/middleware"
	"github.com/nfrund/relay/internal/sse"
	"github.com/nfrund/relay/internal/stream"
)

// StreamOptions configures a StreamHandler.
type StreamOptions struct {
	// Heartbeat is the interval between keep-alive comments on event streams.
	// Zero disables them.
	Heartbeat time.Duration
	// Clock drives the heartbeat. Defaults to the real clock.
	Clock clockwork.Clock
	// Observer is attached to every session.
	Observer stream.Observer
}

// StreamHandler serves the egress endpoints. Each connection gets its own
// stream.Session, which lives exactly as long as the connection.
type StreamHandler struct {
	hub       *hub.Hub
	heartbeat time.Duration
	clock     clockwork.Clock
	observer  stream.Observer
}

// NewStreamHandler creates a new StreamHandler reading from h.
func NewStreamHandler(h *hub.Hub, opts StreamOptions) *StreamHandler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &StreamHandler{
		hub:       h,
		heartbeat: opts.Heartbeat,
		clock:     opts.Clock,
		observer:  opts.Observer,
	}
}

func (h *StreamHandler) newSession(ctx context.Context) *stream.Session {
	return stream.New(h.hub,
		stream.WithLogger(middleware.FromContext(ctx)),
		stream.WithObserver(h.observer),
	)
}

// Events streams every published message as a Server-Sent Event carrying the
// message as JSON. The stream ends when the client disconnects or the hub
// shuts down; neither is treated as an error.
func (h *StreamHandler) Events(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)
	res := c.Response()

	w, err := sse.NewWriter(res)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: CodeStreamFailed, Message: "Streaming unsupported."})
	}

	// Subscribe before the headers go out so a client that has seen the
	// response is guaranteed to receive every later message.
	session := h.newSession(ctx)
	defer session.Close()

	sse.SetHeaders(res.Header())
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx, cancel := context.WithCancel(ctx)
	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)
		if err := w.Heartbeat(ctx, h.clock, h.heartbeat); err != nil {
			logger.Debug("Event stream heartbeat failed", "error", err)
			cancel()
		}
	}()
	defer func() {
		cancel()
		<-heartbeatDone
	}()

	logger.Debug("Event stream opened", "session_id", session.ID())
	for msg := range session.Messages(ctx) {
		if err := w.JSON(msg); err != nil {
			logger.Debug("Event stream write failed", "session_id", session.ID(), "error", err)
			break
		}
	}
	logger.Debug("Event stream closed", "session_id", session.ID(), "skipped", session.Skipped())
	return nil
}

// WebSocket streams every published message as a JSON text frame. Incoming
// frames are ignored; the stream ends when the peer closes the connection or
// the hub shuts down.
func (h *StreamHandler) WebSocket(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	session := h.newSession(ctx)
	defer session.Close()

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		// Any origin may listen, matching the CORS policy of the HTTP endpoints.
		InsecureSkipVerify: true,
	})
	if err != nil {
		// Accept has already written an error response.
		logger.Warn("Failed to upgrade WebSocket connection", "error", err)
		return nil
	}
	defer conn.CloseNow()

	// CloseRead discards incoming frames and cancels ctx when the peer goes away.
	ctx = conn.CloseRead(ctx)

	logger.Debug("WebSocket stream opened", "session_id", session.ID())
	for msg := range session.Messages(ctx) {
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			logger.Debug("WebSocket write failed", "session_id", session.ID(), "error", err)
			break
		}
	}

	if h.hub.Closed() {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	} else {
		conn.Close(websocket.StatusNormalClosure, "")
	}
	logger.Debug("WebSocket stream closed", "session_id", session.ID(), "skipped", session.Skipped())
	return nil
}

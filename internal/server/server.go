package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/handlers"
	"github.com/nfrund/relay/internal/hub"
	"github.com/nfrund/relay/internal/metrics"
	"github.com/nfrund/relay/internal/middleware"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/relay"
	"github.com/prometheus/client_golang/prometheus"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	Cfg      *config.Config
	Hub      *hub.Hub
	Bus      *pubsub.WatermillBridge
	Relay    *relay.Service
	Registry *prometheus.Registry

	messageHandler *handlers.MessageHandler
	streamHandler  *handlers.StreamHandler
	healthHandler  *handlers.HealthHandler
	homeHandler    *handlers.HomeHandler

	stopRelay context.CancelFunc
}

// New creates a new Server instance with every collaborator wired and the
// relay subscriber running. Routes are registered by RegisterRoutes.
func New(cfg *config.Config) (*Server, error) {
	reg := metrics.NewRegistry()
	hubMetrics := metrics.NewHubMetrics(reg)

	h := hub.New(hub.WithObserver(hubMetrics), hub.WithLogger(slog.Default().With("component", "hub")))
	bus := pubsub.NewWatermillBridge()

	relayService := relay.NewService(relay.Dependencies{
		Publisher:  bus,
		Subscriber: bus,
		Hub:        h,
	})
	relayCtx, stopRelay := context.WithCancel(context.Background())
	if err := relayService.Start(relayCtx); err != nil {
		stopRelay()
		bus.Close()
		return nil, fmt.Errorf("failed to start relay: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	setupErrorHandling(e)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(requestLogger())
	e.Use(middleware.CORS)
	e.Use(metrics.HTTPMiddleware(reg))

	return &Server{
		E:        e,
		Cfg:      cfg,
		Hub:      h,
		Bus:      bus,
		Relay:    relayService,
		Registry: reg,

		messageHandler: handlers.NewMessageHandler(relayService),
		streamHandler: handlers.NewStreamHandler(h, handlers.StreamOptions{
			Heartbeat: cfg.SSEHeartbeat,
			Observer:  hubMetrics,
		}),
		healthHandler: handlers.NewHealthHandler(h),
		homeHandler:   handlers.NewHomeHandler(),

		stopRelay: stopRelay,
	}, nil
}

// requestLogger logs one line per completed request through the request-scoped logger.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger := middleware.FromContext(c.Request().Context())
			if v.Error != nil {
				logger.Warn("Request failed", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			logger.Info("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	})
}

package server

import (
	"github.com/nfrund/relay/internal/metrics"
	"github.com/nfrund/relay/internal/middleware"
)

// RegisterRoutes sets up all the application routes. Preflight requests for
// any path are answered by the CORS middleware.
func (s *Server) RegisterRoutes() {
	rateLimiter := middleware.RateLimiter(s.Cfg.RateLimit, s.Cfg.RateBurst)

	s.E.GET("/", s.homeHandler.HomeGet)

	s.E.POST("/message", s.messageHandler.MessagePost, rateLimiter)
	s.E.GET("/events", s.streamHandler.Events)
	s.E.GET("/ws", s.streamHandler.WebSocket)

	s.E.GET("/health", s.healthHandler.HealthGet)
	s.E.GET("/metrics", metrics.Handler(s.Registry))
}

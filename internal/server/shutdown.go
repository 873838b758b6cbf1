package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// notifyContext returns a context that is canceled on an interrupt or
// terminate signal.
func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Shutdown stops the server. The hub is closed first so open event streams
// end immediately and do not hold up the HTTP shutdown; the relay bus is
// closed last.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down server")
	s.Hub.Shutdown()

	err := s.E.Shutdown(ctx)
	s.closeBackground()
	if err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func (s *Server) closeBackground() {
	s.Hub.Shutdown()
	s.stopRelay()
	if err := s.Bus.Close(); err != nil {
		slog.Warn("Failed to close message bus", "error", err)
	}
}

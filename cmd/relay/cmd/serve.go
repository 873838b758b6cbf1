package cmd

import (
	"fmt"
	"log/slog"

	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/logging"
	"github.com/nfrund/relay/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the relay HTTP server. Configuration is read from the environment
and an optional .env file; flags override it.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "address to listen on (overrides ADDR)")
	serveCmd.Flags().String("log-level", "", "log level: debug, info, warn or error (overrides LOG_LEVEL)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	logging.New(cfg.LogFormat, cfg.LogLevel)

	s, err := server.New(cfg)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		return fmt.Errorf("create server: %w", err)
	}
	s.RegisterRoutes()

	if err := s.Start(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		return err
	}
	slog.Info("Server stopped")
	return nil
}

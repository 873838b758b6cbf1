package testutils

import (
	"testing"

	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/logging"
	"github.com/stretchr/testify/require"
)

// testEnv is the environment integration tests run with. The rate limit is
// high enough that tests never trip it.
var testEnv = map[string]string{
	"ADDR":             "127.0.0.1:0",
	"LOG_FORMAT":       "text",
	"LOG_LEVEL":        "error",
	"SHUTDOWN_TIMEOUT": "5s",
	"SSE_HEARTBEAT":    "30s",
	"RATE_LIMIT":       "1000",
	"RATE_BURST":       "1000",
}

// ConfigForTests sets the test environment, applying overrides on top, and
// returns the parsed config. It is the definitive way to get configuration
// for integration tests.
func ConfigForTests(t *testing.T, overrides map[string]string) *config.Config {
	t.Helper()

	for key, value := range testEnv {
		t.Setenv(key, value)
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := config.Parse()
	require.NoError(t, err)

	logging.New(cfg.LogFormat, cfg.LogLevel)
	return cfg
}

package server_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/nfrund/relay/internal/server"
	"github.com/nfrund/relay/internal/testutils"
	"github.com/stretchr/testify/require"
)

// setupIntegrationTest builds a fully wired server behind an httptest server.
// Both are torn down when the test ends.
func setupIntegrationTest(t *testing.T) (*server.Server, *httptest.Server) {
	t.Helper()

	s, err := server.New(testutils.ConfigForTests(t, nil))
	require.NoError(t, err)
	s.RegisterRoutes()

	ts := httptest.NewServer(s.E)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
		ts.Close()
	})
	return s, ts
}

func openEventStream(t *testing.T, ctx context.Context, baseURL string) (*http.Response, *bufio.Reader) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return resp, bufio.NewReader(resp.Body)
}

// nextEvent returns the data of the next event on the stream.
func nextEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			return strings.TrimSuffix(data, "\n")
		}
	}
}

func postMessage(t *testing.T, baseURL string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(baseURL+"/message", form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func chatForm(room, username, message string) url.Values {
	return url.Values{
		"room":         {room},
		"username":     {username},
		"message":      {message},
		"avatar_style": {"bottts"},
	}
}

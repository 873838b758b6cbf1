package server_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/server"
	"github.com/nfrund/relay/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_PostedMessageReachesEventStream(t *testing.T) {
	_, ts := setupIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	streamResp, events := openEventStream(t, ctx, ts.URL)
	assert.Equal(t, "text/event-stream", streamResp.Header.Get("Content-Type"))
	assert.Equal(t, "*", streamResp.Header.Get("Access-Control-Allow-Origin"))

	resp := postMessage(t, ts.URL, chatForm("lobby", "alice", "hi"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, body)

	var got domain.Message
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events)), &got))
	assert.Equal(t, domain.Message{Room: "lobby", Username: "alice", Message: "hi", AvatarStyle: "bottts"}, got)
}

func TestServer_AllListenersSeeTheSameOrder(t *testing.T) {
	_, ts := setupIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, first := openEventStream(t, ctx, ts.URL)
	_, second := openEventStream(t, ctx, ts.URL)

	const n = 5
	for i := range n {
		resp := postMessage(t, ts.URL, chatForm("lobby", "bob", fmt.Sprintf("#%d", i)))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	for _, events := range []*bufio.Reader{first, second} {
		for i := range n {
			var got domain.Message
			require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events)), &got))
			assert.Equal(t, fmt.Sprintf("#%d", i), got.Message)
		}
	}
}

func TestServer_InvalidMessageIsNotBroadcast(t *testing.T) {
	_, ts := setupIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, events := openEventStream(t, ctx, ts.URL)

	resp := postMessage(t, ts.URL, chatForm(strings.Repeat("r", 31), "alice", "too long"))
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = postMessage(t, ts.URL, chatForm("lobby", "alice", "valid"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got domain.Message
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events)), &got))
	assert.Equal(t, "valid", got.Message)
}

func TestServer_PreflightIsAnswered(t *testing.T) {
	_, ts := setupIntegrationTest(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/message", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", resp.Header.Get("Access-Control-Allow-Headers"))
}

func TestServer_WebSocketReceivesPostedMessages(t *testing.T) {
	_, ts := setupIntegrationTest(t)

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	resp := postMessage(t, ts.URL, chatForm("lobby", "carol", "over ws"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got domain.Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "over ws", got.Message)
}

func TestServer_MetricsExposeHubActivity(t *testing.T) {
	_, ts := setupIntegrationTest(t)

	resp := postMessage(t, ts.URL, chatForm("lobby", "alice", "counted"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "relay_hub_messages_published_total 1")
	assert.Contains(t, string(body), "relay_http_requests_total")
}

func TestServer_ShutdownEndsOpenStreams(t *testing.T) {
	s, ts := setupIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, events := openEventStream(t, ctx, ts.URL)

	require.NoError(t, s.Shutdown(ctx))

	_, err := io.ReadAll(events)
	require.NoError(t, err, "the stream ends cleanly")

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, health.StatusCode)
}

func TestServer_RunStopsWhenContextIsCanceled(t *testing.T) {
	s, err := server.New(testutils.ConfigForTests(t, nil))
	require.NoError(t, err)
	s.RegisterRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.E.ListenerAddr() != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + s.E.ListenerAddr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, s.Hub.Closed())
}

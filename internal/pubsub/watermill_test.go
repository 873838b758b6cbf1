package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillBridge_PublishWaitsForHandler(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []Message
	err := bridge.Subscribe(ctx, "test.topic", func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg)
		return nil
	})
	require.NoError(t, err)

	err = bridge.Publish(ctx, Message{
		Topic:    "test.topic",
		Payload:  []byte(`{"message":"hello"}`),
		Metadata: map[string]string{"request_id": "req-123"},
	})
	require.NoError(t, err)

	// Publish only returns after the handler acknowledged, so no waiting is needed.
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "test.topic", received[0].Topic)
	assert.JSONEq(t, `{"message":"hello"}`, string(received[0].Payload))
	assert.Equal(t, "req-123", received[0].Metadata["request_id"])
	assert.NotContains(t, received[0].Metadata, metaKeyTopic)
}

func TestWatermillBridge_HandlerErrorDoesNotRedeliver(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	err := bridge.Subscribe(ctx, "test.failing", func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("boom")
	})
	require.NoError(t, err)

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "test.failing", Payload: []byte("x")}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "test.failing", Payload: []byte("y")}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestWatermillBridge_PublishWithoutSubscriber(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	err := bridge.Publish(context.Background(), Message{Topic: "nobody.listens", Payload: []byte("x")})
	assert.NoError(t, err)
}

func TestWatermillBridge_PublishAfterClose(t *testing.T) {
	bridge := NewWatermillBridge()
	require.NoError(t, bridge.Close())

	err := bridge.Publish(context.Background(), Message{Topic: "test.topic", Payload: []byte("x")})
	assert.Error(t, err)
}

func TestWatermillBridge_PublishWithCanceledContext(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bridge.Publish(ctx, Message{Topic: "test.topic", Payload: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

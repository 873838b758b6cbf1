package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/hub"
	"github.com/nfrund/relay/internal/pubsub"
)

// TopicNewMessage is the bus topic validated chat messages are published on.
const TopicNewMessage = "relay.messages.new"

// NewMessageEvent carries validated chat messages from ingress to the hub.
var NewMessageEvent = pubsub.NewEvent[domain.Message](TopicNewMessage)

// Dependencies holds all the services that the relay Service requires to operate.
// This struct is used for constructor injection to make dependencies explicit.
type Dependencies struct {
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
	Hub        *hub.Hub
}

// Service moves chat messages from the ingress bus into the broadcast hub.
// HTTP handlers call Submit; the bus subscriber started by Start hands each
// message to Hub.Publish.
type Service struct {
	publisher  pubsub.Publisher
	subscriber pubsub.Subscriber
	hub        *hub.Hub
}

// NewService creates a new relay service, injecting its dependencies.
func NewService(deps Dependencies) *Service {
	return &Service{
		publisher:  deps.Publisher,
		subscriber: deps.Subscriber,
		hub:        deps.Hub,
	}
}

// Start begins listening for new messages on the bus. It returns once the
// subscription is active; consumption stops when ctx is canceled.
func (s *Service) Start(ctx context.Context) error {
	slog.Info("Starting relay subscriber", "topic", TopicNewMessage)
	if err := pubsub.Subscribe(ctx, s.subscriber, NewMessageEvent, s.handleNewMessage); err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicNewMessage, err)
	}
	return nil
}

// Submit publishes msg on the bus. With the blocking in-memory bus it returns
// after the message has been handed to the hub.
func (s *Service) Submit(ctx context.Context, msg domain.Message) error {
	return pubsub.Publish(ctx, s.publisher, NewMessageEvent, msg)
}

// handleNewMessage publishes a decoded bus message to the hub.
func (s *Service) handleNewMessage(ctx context.Context, incoming domain.Message) error {
	n, err := s.hub.Publish(incoming)
	if errors.Is(err, domain.ErrHubClosed) {
		// Best effort: a message arriving during shutdown is dropped.
		slog.Debug("Dropping message, hub is closed", "room", incoming.Room)
		return nil
	}
	if err != nil {
		return err
	}

	slog.Debug("Message relayed", "room", incoming.Room, "username", incoming.Username, "listeners", n)
	return nil
}

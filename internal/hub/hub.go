package hub

import (
	"log/slog"
	"sync"

	"github.com/nfrund/relay/internal/domain"
)

// Capacity is the number of messages the hub retains. It is fixed for the
// lifetime of the process.
const Capacity = 1024

// Observer receives notifications about hub activity. It is used to attach
// metrics without the hub depending on a metrics library. Implementations
// must be safe for concurrent use and must not block.
type Observer interface {
	MessagePublished(subscribers int)
	SubscriberAdded()
	SubscriberRemoved()
	SubscriberLagged(skipped uint64)
}

type nopObserver struct{}

func (nopObserver) MessagePublished(int) {}
func (nopObserver) SubscriberAdded() {}
func (nopObserver) SubscriberRemoved() {}
func (nopObserver) SubscriberLagged(uint64) {}

// Option configures a Hub.
type Option func(*Hub)

// WithObserver attaches an Observer to the hub.
func WithObserver(o Observer) Option {
	return func(h *Hub) {
		if o != nil {
			h.observer = o
		}
	}
}

// WithLogger sets the logger used by the hub. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// Hub is a multi-producer, multi-consumer broadcast buffer. Publishers append
// to a fixed-size ring; every Subscription keeps its own read cursor into that
// ring. Publishing never waits for subscribers: a subscriber that falls more
// than Capacity messages behind loses the overwritten messages and is moved
// forward to the oldest one still retained.
type Hub struct {
	mu sync.RWMutex

	// ring holds the most recent messages. The message with sequence number
	// seq lives at ring[seq%Capacity].
	ring [Capacity]domain.Message

	// tail is the sequence number the next published message will get. It
	// equals the total number of messages ever published.
	tail uint64

	// notify is closed and replaced on every publish, and closed on shutdown.
	// Waiters grab the current channel under the lock, so a publish between
	// the check and the wait is never missed.
	notify chan struct{}

	closed      bool
	subscribers map[*Subscription]struct{}

	observer Observer
	logger   *slog.Logger
}

// New creates and returns a new Hub instance.
func New(opts ...Option) *Hub {
	h := &Hub{
		notify:      make(chan struct{}),
		subscribers: make(map[*Subscription]struct{}),
		observer:    nopObserver{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish appends msg to the buffer and wakes every waiting subscription.
// It returns the number of live subscriptions at the time of the append.
// Zero is not an error: the message is still retained for subscribers that
// are behind. The only failure is domain.ErrHubClosed.
func (h *Hub) Publish(msg domain.Message) (int, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, domain.ErrHubClosed
	}

	h.ring[h.tail%Capacity] = msg
	h.tail++
	n := len(h.subscribers)

	wake := h.notify
	h.notify = make(chan struct{})
	h.mu.Unlock()

	close(wake)
	h.observer.MessagePublished(n)
	return n, nil
}

// Subscribe registers a new subscription positioned at the current end of the
// buffer, so it only receives messages published after this call. It never
// fails; after Shutdown it returns a subscription whose Recv reports
// domain.ErrHubClosed.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := newSubscription(h, h.tail)
	if h.closed {
		s.closed.Store(true)
		return s
	}

	h.subscribers[s] = struct{}{}
	h.observer.SubscriberAdded()
	h.logger.Debug("Subscriber registered", "subscription_id", s.id, "total_subscribers", len(h.subscribers))
	return s
}

// Shutdown closes the hub. Every pending and future Recv returns
// domain.ErrHubClosed and no further messages can be published. It is safe to
// call more than once.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	n := len(h.subscribers)
	wake := h.notify
	h.mu.Unlock()

	close(wake)
	h.logger.Info("Hub shut down", "open_subscribers", n)
}

// Closed reports whether Shutdown has been called.
func (h *Hub) Closed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// Len returns the number of messages currently retained, at most Capacity.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return int(min(h.tail, Capacity))
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Snapshot returns a copy of the retained messages, oldest first.
func (h *Hub) Snapshot() []domain.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.Message, 0, min(h.tail, Capacity))
	for seq := h.oldest(); seq < h.tail; seq++ {
		out = append(out, h.ring[seq%Capacity])
	}
	return out
}

// oldest returns the sequence number of the oldest retained message.
// Callers must hold h.mu.
func (h *Hub) oldest() uint64 {
	if h.tail < Capacity {
		return 0
	}
	return h.tail - Capacity
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	_, ok := h.subscribers[s]
	delete(h.subscribers, s)
	n := len(h.subscribers)
	h.mu.Unlock()

	if ok {
		h.observer.SubscriberRemoved()
		h.logger.Debug("Subscriber unregistered", "subscription_id", s.id, "total_subscribers", n)
	}
}

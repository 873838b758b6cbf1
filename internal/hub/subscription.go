package hub

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/nfrund/relay/internal/domain"
)

// ErrLagged is matched by the error Recv returns when the subscription fell
// behind and messages were overwritten before it could read them.
var ErrLagged = errors.New("subscription lagged behind")

// LagError reports how many messages a subscription missed. The subscription
// has already been moved to the oldest retained message when it is returned.
type LagError struct {
	Skipped uint64
}

func (e *LagError) Error() string {
	return fmt.Sprintf("subscription lagged behind, skipped %d messages", e.Skipped)
}

// Is lets errors.Is(err, ErrLagged) match a *LagError.
func (e *LagError) Is(target error) bool {
	return target == ErrLagged
}

// Subscription is one reader's cursor into the hub. It must be read from a
// single goroutine; Close may be called from anywhere.
type Subscription struct {
	id     uuid.UUID
	hub    *Hub
	next   uint64
	closed atomic.Bool
}

func newSubscription(h *Hub, next uint64) *Subscription {
	return &Subscription{
		id:   uuid.New(),
		hub:  h,
		next: next,
	}
}

// ID returns the unique identifier of the subscription.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Recv returns the next message for this subscription, waiting until one is
// published, ctx is done, or the hub shuts down.
//
// Cancellation is checked before data on every wake-up, so a message that
// arrives together with cancellation is not returned. When the subscription
// has been overrun, Recv returns a *LagError and the following call returns
// the oldest message still retained.
func (s *Subscription) Recv(ctx context.Context) (domain.Message, error) {
	h := s.hub
	for {
		if err := ctx.Err(); err != nil {
			return domain.Message{}, err
		}
		if s.closed.Load() {
			if h.Closed() {
				return domain.Message{}, domain.ErrHubClosed
			}
			return domain.Message{}, domain.ErrSubscriptionClosed
		}

		h.mu.RLock()
		if h.closed {
			h.mu.RUnlock()
			return domain.Message{}, domain.ErrHubClosed
		}
		if oldest := h.oldest(); s.next < oldest {
			skipped := oldest - s.next
			s.next = oldest
			h.mu.RUnlock()
			h.observer.SubscriberLagged(skipped)
			return domain.Message{}, &LagError{Skipped: skipped}
		}
		if s.next < h.tail {
			msg := h.ring[s.next%Capacity]
			s.next++
			h.mu.RUnlock()
			return msg, nil
		}
		wait := h.notify
		h.mu.RUnlock()

		select {
		case <-ctx.Done():
			return domain.Message{}, ctx.Err()
		case <-wait:
		}
	}
}

// Close unregisters the subscription. Subsequent Recv calls return
// domain.ErrSubscriptionClosed. Close does not interrupt a Recv that is
// already waiting; cancel its context for that. Close is idempotent.
func (s *Subscription) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.hub.remove(s)
}

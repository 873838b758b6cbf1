package stream

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/hub"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateOpen State = iota
	StateWaiting
	StateYielding
	StateSkipping
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateWaiting:
		return "waiting"
	case StateYielding:
		return "yielding"
	case StateSkipping:
		return "skipping"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Observer is notified when sessions open and close.
type Observer interface {
	SessionOpened()
	SessionClosed()
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for the session.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver attaches an Observer to the session.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}

// Session adapts one hub subscription into a sequence of messages bound to a
// single connection. Lagging is absorbed silently; hub shutdown and context
// cancellation end the sequence without an error.
type Session struct {
	sub      *hub.Subscription
	logger   *slog.Logger
	observer Observer

	state     atomic.Int32
	skipped   atomic.Uint64
	closeOnce sync.Once
}

// New subscribes to h and returns a session that starts at the current end of
// the hub's buffer.
func New(h *hub.Hub, opts ...Option) *Session {
	s := &Session{
		sub:    h.Subscribe(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.sub.ID())
	s.state.Store(int32(StateOpen))
	if s.observer != nil {
		s.observer.SessionOpened()
	}
	return s
}

// ID returns the session identifier, shared with its subscription.
func (s *Session) ID() uuid.UUID {
	return s.sub.ID()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Skipped returns the total number of messages this session lost to lag.
func (s *Session) Skipped() uint64 {
	return s.skipped.Load()
}

// Next waits for the next message. It returns false once the session is
// closed, whether by ctx, hub shutdown or Close; the session is closed by the
// time false is returned.
func (s *Session) Next(ctx context.Context) (domain.Message, bool) {
	for {
		if !s.transition(StateWaiting) {
			return domain.Message{}, false
		}

		msg, err := s.sub.Recv(ctx)
		if err == nil {
			if !s.transition(StateYielding) {
				return domain.Message{}, false
			}
			return msg, true
		}

		var lagErr *hub.LagError
		if errors.As(err, &lagErr) {
			s.transition(StateSkipping)
			s.skipped.Add(lagErr.Skipped)
			s.logger.Debug("Session lagged, skipping to oldest retained message", "skipped", lagErr.Skipped)
			continue
		}

		s.closeWith(err)
		return domain.Message{}, false
	}
}

// Messages returns the session as a lazy, unbounded sequence. The sequence
// ends when the session closes; stopping the iteration early closes the
// session. It cannot be restarted.
func (s *Session) Messages(ctx context.Context) iter.Seq[domain.Message] {
	return func(yield func(domain.Message) bool) {
		defer s.Close()
		for {
			msg, ok := s.Next(ctx)
			if !ok {
				return
			}
			if !yield(msg) {
				return
			}
		}
	}
}

// transition moves the session to next unless it is already closed.
func (s *Session) transition(next State) bool {
	for {
		cur := s.state.Load()
		if State(cur) == StateClosed {
			return false
		}
		if s.state.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}

// Close releases the subscription. It is idempotent.
func (s *Session) Close() {
	s.closeWith(nil)
}

func (s *Session) closeWith(reason error) {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		s.sub.Close()
		if s.observer != nil {
			s.observer.SessionClosed()
		}

		switch {
		case reason == nil, errors.Is(reason, context.Canceled), errors.Is(reason, context.DeadlineExceeded):
			s.logger.Debug("Session closed")
		case errors.Is(reason, domain.ErrHubClosed):
			s.logger.Debug("Session closed by hub shutdown")
		default:
			s.logger.Debug("Session closed", "reason", reason)
		}
	})
}

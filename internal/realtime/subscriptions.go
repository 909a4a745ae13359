package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// subscriptions keeps the transport subscription set in sync with the users
// that currently have local connections. The set is tracked locally so
// Subscribe/Unsubscribe calls stay idempotent, and it is rebuilt from the
// registry on every relay reconnect: the registry is the source of truth,
// and subscription state is never assumed to survive a transport failure.
type subscriptions struct {
	mu       sync.Mutex
	listener Listener
	channels map[string]struct{}
	log      *slog.Logger
}

func newSubscriptions(log *slog.Logger) *subscriptions {
	return &subscriptions{log: log}
}

// attach binds a fresh listener and subscribes it to the channels derived
// from the registry. The derivation runs under the same lock that guards
// ensureSubscribed, so a connection arriving during a reconnect is either in
// the derived set or subscribes explicitly afterwards, never lost between
// the two.
func (s *subscriptions) attach(ctx context.Context, l Listener, derive func() []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := derive()
	if err := l.Subscribe(ctx, channels...); err != nil {
		return err
	}

	s.listener = l
	s.channels = make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		s.channels[ch] = struct{}{}
	}
	return nil
}

// detach forgets a listener when its relay cycle ends. A listener attached by
// a newer cycle is left alone.
func (s *subscriptions) detach(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == l {
		s.listener = nil
		s.channels = nil
	}
}

// ensureSubscribed subscribes the process-wide listener to a channel. Safe to
// call when already subscribed. A transport failure is logged and left for
// the next reconnect cycle to reconcile; it never fails the connect path.
func (s *subscriptions) ensureSubscribed(ctx context.Context, channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		// No active relay cycle; the next attach derives this channel
		// from the registry.
		return
	}
	if _, ok := s.channels[channel]; ok {
		return
	}
	if err := s.listener.Subscribe(ctx, channel); err != nil {
		s.log.Warn("channel subscribe failed", "channel", channel, "error", err)
		return
	}
	s.channels[channel] = struct{}{}
}

// ensureUnsubscribed drops a channel once the registry holds no connections
// for it. Failures are logged and reconciled on the next reconnect.
func (s *subscriptions) ensureUnsubscribed(ctx context.Context, channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return
	}
	if _, ok := s.channels[channel]; !ok {
		return
	}
	delete(s.channels, channel)
	if err := s.listener.Unsubscribe(ctx, channel); err != nil {
		s.log.Warn("channel unsubscribe failed", "channel", channel, "error", err)
	}
}

// subscribed reports whether the channel is currently held, for tests and
// introspection.
func (s *subscriptions) subscribed(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.channels[channel]
	return ok
}

package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultBackoff = time.Second

// Hub is the realtime core of one service instance: it owns the connection
// registry, keeps transport subscriptions in sync with it, relays transport
// messages into local sockets, and exposes Broadcast/SendToUser to the rest
// of the application.
//
// Cross-instance delivery goes through the transport only; the hub never
// shares connection state between instances.
type Hub struct {
	transport Transport
	registry  *registry
	subs      *subscriptions
	backoff   time.Duration
	log       *slog.Logger

	// lifecycle makes a registry transition and its matching subscription
	// change one atomic step. With separate locks, a user's last disconnect
	// racing a fresh reconnect can unsubscribe the channel of a connection
	// that just registered.
	lifecycle sync.Mutex
}

func NewHub(transport Transport, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		transport: transport,
		registry:  newRegistry(),
		subs:      newSubscriptions(log),
		backoff:   defaultBackoff,
		log:       log,
	}
}

// Register adds a connection to the registry and, for the user's first local
// connection, subscribes the instance to that user's channel.
func (h *Hub) Register(ctx context.Context, c *Client) {
	h.lifecycle.Lock()
	if h.registry.add(c) {
		h.subs.ensureSubscribed(ctx, UserChannel(c.userID))
	}
	h.lifecycle.Unlock()
	h.log.Info("client registered", "clientID", c.id, "userID", c.userID)
}

// Unregister removes a connection, closing its send channel and dropping the
// user's channel subscription when no local connection remains. Idempotent:
// unregistering an absent connection is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.lifecycle.Lock()
	existed, last := h.registry.remove(c)
	if last {
		h.subs.ensureUnsubscribed(context.Background(), UserChannel(c.userID))
	}
	h.lifecycle.Unlock()

	if !existed {
		return
	}
	c.closeSend()
	h.log.Info("client unregistered", "clientID", c.id, "userID", c.userID)
}

// Broadcast publishes a message to every instance. When the transport is
// unreachable it degrades to local-only delivery: same-instance subscribers
// still receive the message and the lost cross-instance fan-out is logged.
func (h *Hub) Broadcast(ctx context.Context, msg Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := h.transport.Publish(ctx, BroadcastChannel, payload); err != nil {
		h.log.Warn("broadcast publish failed, falling back to local delivery",
			"type", msg.Type, "error", err)
		h.deliverLocal(payload, 0)
	}
	return nil
}

// SendToUser publishes a message to one user's channel. On publish failure it
// falls back to local delivery and reports whether any local connection for
// the user existed, so callers can tell "delivered somewhere" from "user not
// reachable from this instance".
func (h *Hub) SendToUser(ctx context.Context, userID uint, msg Message) (bool, error) {
	payload, err := msg.Encode()
	if err != nil {
		return false, err
	}
	if err := h.transport.Publish(ctx, UserChannel(userID), payload); err != nil {
		h.log.Warn("user publish failed, falling back to local delivery",
			"userID", userID, "type", msg.Type, "error", err)
		return h.deliverLocal(payload, userID), nil
	}
	return true, nil
}

// deliverLocal writes a payload to every matching local connection (userID 0
// targets everyone). Each write is attempted independently; a connection that
// cannot accept the write is dropped through the normal disconnect path.
// Never propagates an error to the caller.
func (h *Hub) deliverLocal(payload []byte, userID uint) bool {
	delivered := false
	var dead []*Client
	for _, c := range h.registry.snapshot(userID) {
		if c.enqueue(payload) {
			delivered = true
		} else {
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		h.log.Warn("dropping unresponsive connection", "clientID", c.id, "userID", c.userID)
		h.Unregister(c)
	}
	return delivered
}

// Run is the cross-instance relay loop, started once per instance. Each cycle
// opens a listener, subscribes to the broadcast channel plus every user
// channel the registry currently holds, and forwards received messages into
// local delivery. On any transport error the cycle ends and a new one starts
// after a fixed backoff; the relay never permanently gives up.
func (h *Hub) Run(ctx context.Context) {
	for {
		if err := h.runOnce(ctx); err != nil && ctx.Err() == nil {
			h.log.Warn("relay disconnected, reconnecting", "backoff", h.backoff, "error", err)
		}
		select {
		case <-ctx.Done():
			h.log.Info("relay loop stopped")
			return
		case <-time.After(h.backoff):
		}
	}
}

// runOnce drives a single relay cycle. Split out so tests can run one
// iteration at a time. The resubscription step completes before any message
// is delivered, closing the window where a reconnect would silently drop a
// still-connected user's channel.
func (h *Hub) runOnce(ctx context.Context) error {
	listener, err := h.transport.Listen(ctx)
	if err != nil {
		return err
	}
	defer listener.Close()

	err = h.subs.attach(ctx, listener, func() []string {
		channels := []string{BroadcastChannel}
		for _, id := range h.registry.users() {
			channels = append(channels, UserChannel(id))
		}
		return channels
	})
	if err != nil {
		return err
	}
	defer h.subs.detach(listener)

	for {
		msg, err := listener.Receive(ctx)
		if err != nil {
			return err
		}
		h.route(msg)
	}
}

// route forwards one transport message into local delivery. A payload that
// fails validation is logged and skipped; it never ends the relay cycle.
func (h *Hub) route(msg TransportMessage) {
	if _, err := Decode(msg.Payload); err != nil {
		h.log.Warn("discarding malformed transport message", "channel", msg.Channel, "error", err)
		return
	}

	if msg.Channel == BroadcastChannel {
		h.deliverLocal(msg.Payload, 0)
		return
	}
	if userID, ok := ParseUserChannel(msg.Channel); ok {
		h.deliverLocal(msg.Payload, userID)
		return
	}
	h.log.Debug("message on unexpected channel", "channel", msg.Channel)
}

// LocalConnections reports how many live connections this instance holds for
// a user (0 counts everyone).
func (h *Hub) LocalConnections(userID uint) int {
	return len(h.registry.snapshot(userID))
}

package realtime

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	// BroadcastChannel is the one well-known address every instance listens on.
	BroadcastChannel = "ws:broadcast"

	userChannelPrefix = "ws:user:"
)

// UserChannel derives the per-user transport address. The mapping is
// reversible via ParseUserChannel so the relay can route received messages.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

func ParseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// TransportMessage is one received pub/sub message.
type TransportMessage struct {
	Channel string
	Payload []byte
}

// Transport is the pub/sub broker the instances coordinate through.
type Transport interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Listen opens a fresh subscriber connection. The relay opens one per
	// reconnect cycle and closes it when the cycle ends.
	Listen(ctx context.Context) (Listener, error)
}

// Listener is one subscriber connection. Receive blocks until a message
// arrives or the connection fails; any error ends the current relay cycle.
type Listener interface {
	Subscribe(ctx context.Context, channels ...string) error
	Unsubscribe(ctx context.Context, channels ...string) error
	Receive(ctx context.Context) (TransportMessage, error)
	Close() error
}

// RedisTransport implements Transport over Redis Pub/Sub.
type RedisTransport struct {
	rdb *redis.Client
}

func NewRedisTransport(rdb *redis.Client) *RedisTransport {
	return &RedisTransport{rdb: rdb}
}

func (t *RedisTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	return t.rdb.Publish(ctx, channel, payload).Err()
}

func (t *RedisTransport) Listen(ctx context.Context) (Listener, error) {
	// Subscribe with no channels just opens the connection; the relay
	// subscribes explicitly once it has derived the channel set.
	pubsub := t.rdb.Subscribe(ctx)
	return &redisListener{pubsub: pubsub}, nil
}

type redisListener struct {
	pubsub *redis.PubSub
}

func (l *redisListener) Subscribe(ctx context.Context, channels ...string) error {
	return l.pubsub.Subscribe(ctx, channels...)
}

func (l *redisListener) Unsubscribe(ctx context.Context, channels ...string) error {
	return l.pubsub.Unsubscribe(ctx, channels...)
}

func (l *redisListener) Receive(ctx context.Context) (TransportMessage, error) {
	msg, err := l.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return TransportMessage{}, err
	}
	return TransportMessage{Channel: msg.Channel, Payload: []byte(msg.Payload)}, nil
}

func (l *redisListener) Close() error {
	return l.pubsub.Close()
}

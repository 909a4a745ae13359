package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Activity event types published to the activity topic.
const (
	EventUserFollowed   = "user.followed"
	EventPostCreated    = "post.created"
	EventCheckInCreated = "checkin.created"
	EventBounceCreated  = "bounce.created"
	EventStreamStarted  = "stream.started"
)

type envelope struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Producer writes activity events to Kafka. Emission is best effort: a
// broker outage must never fail the request that triggered the event.
type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewProducer returns a nil-safe producer. With no brokers configured it
// returns nil and every Emit becomes a no-op.
func NewProducer(brokers []string, topic string, log *slog.Logger) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
		log: log,
	}
}

// Emit publishes an event, logging failures instead of returning them.
func (p *Producer) Emit(ctx context.Context, eventType string, payload any) {
	if p == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		p.log.Warn("event payload not serializable", "type", eventType, "error", err)
		return
	}
	value, err := json.Marshal(envelope{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	})
	if err != nil {
		p.log.Warn("event envelope not serializable", "type", eventType, "error", err)
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventType),
		Value: value,
	})
	if err != nil {
		p.log.Warn("event publish failed", "type", eventType, "error", err)
	}
}

// Close flushes buffered messages.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

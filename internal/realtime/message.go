package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType discriminates the wire format of every frame pushed to clients.
type MessageType string

const (
	// Connection events
	MessageTypeConnected   MessageType = "connected"
	MessageTypeInitialFeed MessageType = "initial_feed"

	// User-targeted events
	MessageTypeNotification MessageType = "notification"

	// Broadcast events
	MessageTypeNewPost         MessageType = "new_post"
	MessageTypeLocationUpdate  MessageType = "location_update"
	MessageTypeLocationExpired MessageType = "location_expired"
	MessageTypeSystem          MessageType = "system"
)

var ErrUnknownMessage = errors.New("message missing type discriminator")

// Message is the single wire envelope for both local socket delivery and
// transport publishes. Only the fields for the variant named by Type are set;
// everything else stays empty and is dropped by omitempty, so local and
// cross-instance delivery share an identical JSON representation.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`

	// notification / system
	Text       string `json:"text,omitempty"`
	FromUserID uint   `json:"from_user_id,omitempty"`

	// connected
	ClientID string `json:"client_id,omitempty"`

	// new_post
	Post json.RawMessage `json:"post,omitempty"`

	// initial_feed
	Posts json.RawMessage `json:"posts,omitempty"`

	// location_update / location_expired
	LocationID string   `json:"location_id,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	AreaName   string   `json:"area_name,omitempty"`
}

func (mt MessageType) String() string {
	return string(mt)
}

// Known reports whether the type is one this service itself produces. Unknown
// but well-formed types still travel through the relay untouched; Known is for
// code that dispatches on the variant.
func (mt MessageType) Known() bool {
	switch mt {
	case MessageTypeConnected, MessageTypeInitialFeed, MessageTypeNotification,
		MessageTypeNewPost, MessageTypeLocationUpdate, MessageTypeLocationExpired,
		MessageTypeSystem:
		return true
	default:
		return false
	}
}

// Decode validates a payload at the serialization boundary. A payload that is
// not a JSON object or has no type discriminator fails with ErrUnknownMessage
// rather than being passed along as an untyped blob.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if m.Type == "" {
		return Message{}, ErrUnknownMessage
	}
	return m, nil
}

func (m Message) Encode() ([]byte, error) {
	if m.Type == "" {
		return nil, ErrUnknownMessage
	}
	return json.Marshal(m)
}

func newMessage(t MessageType) Message {
	return Message{Type: t, Timestamp: time.Now().UTC()}
}

func NewConnectedMessage(clientID string) Message {
	m := newMessage(MessageTypeConnected)
	m.ClientID = clientID
	return m
}

func NewNotificationMessage(fromUserID uint, text string) Message {
	m := newMessage(MessageTypeNotification)
	m.FromUserID = fromUserID
	m.Text = text
	return m
}

func NewSystemMessage(text string) Message {
	m := newMessage(MessageTypeSystem)
	m.Text = text
	return m
}

// NewPostMessage wraps an already-serialized post payload.
func NewPostMessage(post json.RawMessage) Message {
	m := newMessage(MessageTypeNewPost)
	m.Post = post
	return m
}

// NewInitialFeedMessage wraps the serialized recent-post snapshot sent once
// per connection, right after the connected frame.
func NewInitialFeedMessage(posts json.RawMessage) Message {
	m := newMessage(MessageTypeInitialFeed)
	m.Posts = posts
	return m
}

func NewLocationUpdateMessage(locationID string, lat, lon float64, areaName string) Message {
	m := newMessage(MessageTypeLocationUpdate)
	m.LocationID = locationID
	m.Latitude = &lat
	m.Longitude = &lon
	m.AreaName = areaName
	return m
}

func NewLocationExpiredMessage(locationID string) Message {
	m := newMessage(MessageTypeLocationExpired)
	m.LocationID = locationID
	return m
}

package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errListenerClosed = errors.New("listener closed")

// fakeTransport is an in-memory broker: publishes are echoed to every
// listener subscribed to the channel, like a single Redis node would.
type fakeTransport struct {
	mu         sync.Mutex
	publishErr error
	listenErr  error
	listeners  []*fakeListener
	created    chan *fakeListener
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{created: make(chan *fakeListener, 8)}
}

func (t *fakeTransport) setPublishErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.publishErr = err
}

func (t *fakeTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	t.mu.Lock()
	err := t.publishErr
	listeners := make([]*fakeListener, len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	if err != nil {
		return err
	}
	for _, l := range listeners {
		l.deliver(channel, payload)
	}
	return nil
}

func (t *fakeTransport) Listen(ctx context.Context) (Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listenErr != nil {
		return nil, t.listenErr
	}
	l := &fakeListener{
		channels: make(map[string]struct{}),
		msgs:     make(chan TransportMessage, 64),
		closed:   make(chan struct{}),
	}
	t.listeners = append(t.listeners, l)
	t.created <- l
	return l, nil
}

// waitListener blocks until the relay opens its next listener.
func (t *fakeTransport) waitListener(tb testing.TB) *fakeListener {
	tb.Helper()
	select {
	case l := <-t.created:
		return l
	case <-time.After(time.Second):
		tb.Fatal("relay never opened a listener")
		return nil
	}
}

type fakeListener struct {
	mu        sync.Mutex
	channels  map[string]struct{}
	subErr    error
	msgs      chan TransportMessage
	closed    chan struct{}
	closeOnce sync.Once
}

func (l *fakeListener) Subscribe(ctx context.Context, channels ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subErr != nil {
		return l.subErr
	}
	for _, ch := range channels {
		l.channels[ch] = struct{}{}
	}
	return nil
}

func (l *fakeListener) Unsubscribe(ctx context.Context, channels ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, ch := range channels {
		delete(l.channels, ch)
	}
	return nil
}

func (l *fakeListener) Receive(ctx context.Context) (TransportMessage, error) {
	select {
	case msg := <-l.msgs:
		return msg, nil
	case <-l.closed:
		return TransportMessage{}, errListenerClosed
	case <-ctx.Done():
		return TransportMessage{}, ctx.Err()
	}
}

func (l *fakeListener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

// fail simulates the broker dropping the subscriber connection.
func (l *fakeListener) fail() {
	l.Close()
}

func (l *fakeListener) deliver(channel string, payload []byte) {
	l.mu.Lock()
	_, subscribed := l.channels[channel]
	l.mu.Unlock()

	if !subscribed {
		return
	}
	select {
	case l.msgs <- TransportMessage{Channel: channel, Payload: payload}:
	case <-l.closed:
	}
}

func (l *fakeListener) isSubscribed(channel string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.channels[channel]
	return ok
}

// waitSubscribed blocks until the relay's resubscription step has reached the
// given channel, so tests can publish without racing the reconnect.
func (l *fakeListener) waitSubscribed(tb testing.TB, channel string) {
	tb.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if l.isSubscribed(channel) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	tb.Fatalf("listener never subscribed to %s", channel)
}

// fakeSocket implements wsConn with a scripted read side. Reads return the
// scripted frames in order, then block until the socket is closed.
type fakeSocket struct {
	mu     sync.Mutex
	reads  [][]byte
	writes [][]byte
	done   chan struct{}
	once   sync.Once
}

func newFakeSocket(reads ...[]byte) *fakeSocket {
	return &fakeSocket{reads: reads, done: make(chan struct{})}
}

func (f *fakeSocket) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	if len(f.reads) > 0 {
		data := f.reads[0]
		f.reads = f.reads[1:]
		f.mu.Unlock()
		return 1, data, nil
	}
	f.mu.Unlock()

	<-f.done
	return 0, nil, errListenerClosed
}

func (f *fakeSocket) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, data)
	return nil
}

func (f *fakeSocket) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (f *fakeSocket) SetReadLimit(limit int64)                {}
func (f *fakeSocket) SetReadDeadline(t time.Time) error       { return nil }
func (f *fakeSocket) SetWriteDeadline(t time.Time) error      { return nil }
func (f *fakeSocket) SetPongHandler(h func(string) error)     {}
func (f *fakeSocket) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

// connect registers a fresh client for a user without running its pumps, so
// tests can read deliveries straight off the send channel.
func connect(tb testing.TB, hub *Hub, userID uint) *Client {
	tb.Helper()
	c := newClient(hub, newFakeSocket(), userID)
	hub.Register(context.Background(), c)
	return c
}

// receiveMessage pops the next delivered payload for a client.
func receiveMessage(tb testing.TB, c *Client) Message {
	tb.Helper()
	select {
	case payload := <-c.send:
		msg, err := Decode(payload)
		if err != nil {
			tb.Fatalf("delivered payload failed to decode: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		tb.Fatal("no message delivered")
		return Message{}
	}
}

// expectNoMessage asserts nothing arrives for a short window.
func expectNoMessage(tb testing.TB, c *Client) {
	tb.Helper()
	select {
	case payload := <-c.send:
		tb.Fatalf("unexpected delivery: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

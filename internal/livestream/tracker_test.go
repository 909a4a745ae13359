package livestream

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"bounce-service/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTrackConn scripts a sequence of frames and then fails the read like a
// dropped socket.
type fakeTrackConn struct {
	frames [][]byte
	pos    int
	closed bool
}

func (f *fakeTrackConn) ReadMessage() (int, []byte, error) {
	if f.pos >= len(f.frames) {
		return 0, nil, &websocket.CloseError{Code: websocket.CloseAbnormalClosure}
	}
	frame := f.frames[f.pos]
	f.pos++
	return websocket.TextMessage, frame, nil
}

func (f *fakeTrackConn) SetReadLimit(int64)           {}
func (f *fakeTrackConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeTrackConn) Close() error {
	f.closed = true
	return nil
}

func newTrackerFixture(t *testing.T) (*fakeStreamRepo, LivestreamService, *Tracker) {
	t.Helper()
	repo := newFakeStreamRepo()
	svc := NewLivestreamService(repo, nil)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repo, svc, NewTracker(svc, nil, log)
}

func TestTrackerRecordsViewerHighWaterMark(t *testing.T) {
	repo, svc, tracker := newTrackerFixture(t)

	stream, err := svc.Start(context.Background(), 1, "")
	require.NoError(t, err)

	conn := &fakeTrackConn{frames: [][]byte{
		[]byte(`{"type":"viewer_update","count":3}`),
		[]byte(`{"type":"viewer_update","count":17}`),
		[]byte(`{"type":"viewer_update","count":9}`),
	}}
	tracker.run(context.Background(), conn, stream.RoomID)

	assert.Equal(t, 17, repo.streams[stream.RoomID].MaxViewers)
	assert.True(t, conn.closed)
}

func TestTrackerEndsStreamOnDisconnect(t *testing.T) {
	repo, svc, tracker := newTrackerFixture(t)

	stream, err := svc.Start(context.Background(), 1, "")
	require.NoError(t, err)

	tracker.run(context.Background(), &fakeTrackConn{}, stream.RoomID)

	got := repo.streams[stream.RoomID]
	assert.Equal(t, models.LivestreamStatusEnded, got.Status)
	require.NotNil(t, got.EndedAt)
}

func TestTrackerToleratesGarbageFrames(t *testing.T) {
	repo, svc, tracker := newTrackerFixture(t)

	stream, err := svc.Start(context.Background(), 1, "")
	require.NoError(t, err)

	conn := &fakeTrackConn{frames: [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"type":"something_else"}`),
		[]byte(`{"type":"viewer_update"}`),
		[]byte(`{"type":"viewer_update","count":4}`),
	}}
	tracker.run(context.Background(), conn, stream.RoomID)

	// The garbage was skipped, the valid update landed, and the stream
	// still ended cleanly when the socket dropped.
	got := repo.streams[stream.RoomID]
	assert.Equal(t, 4, got.MaxViewers)
	assert.Equal(t, models.LivestreamStatusEnded, got.Status)
}

func TestTrackerEndRoomFailureDoesNotPanic(t *testing.T) {
	_, _, tracker := newTrackerFixture(t)

	// Unknown room: EndRoom is a no-op in the fake, nothing to assert
	// beyond not panicking.
	tracker.run(context.Background(), &fakeTrackConn{}, "no-such-room")
}

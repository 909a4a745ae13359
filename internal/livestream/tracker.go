package livestream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

const (
	trackerReadLimit    = 1024
	trackerReadDeadline = 90 * time.Second
	closeWriteWait      = 10 * time.Second
)

// TokenVerifier checks an access token and returns the user id it carries.
type TokenVerifier interface {
	VerifyAccessToken(token string) (uint, error)
}

// trackConn is the slice of *websocket.Conn the tracker loop needs.
type trackConn interface {
	ReadMessage() (int, []byte, error)
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	Close() error
}

// trackerFrame is a client status message. Viewer updates carry the current
// room size in "count".
type trackerFrame struct {
	Type  string `json:"type"`
	Count *int   `json:"count"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Tracker terminates the streamer's tracking websocket. The broadcasting
// client reports viewer counts over it, and a dropped socket ends the stream.
type Tracker struct {
	service LivestreamService
	tokens  TokenVerifier
	log     *slog.Logger
}

func NewTracker(service LivestreamService, tokens TokenVerifier, log *slog.Logger) *Tracker {
	return &Tracker{service: service, tokens: tokens, log: log}
}

// Track handles GET /ws/livestream/{room_id}?token={jwt}.
func (t *Tracker) Track(c *gin.Context) {
	token := strings.TrimPrefix(c.Query("token"), "Bearer ")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	userID, err := t.tokens.VerifyAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	roomID := c.Param("room_id")
	stream, err := t.service.Get(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, ErrStreamNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "livestream not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	if stream.Streamer != nil && stream.Streamer.ID != userID {
		deadline := time.Now().Add(closeWriteWait)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "not the stream owner"), deadline)
		conn.Close()
		return
	}

	t.run(c.Request.Context(), conn, roomID)
}

// run reads viewer updates until the socket drops, then ends the stream.
// The context deliberately does not stop the read loop; the socket closing
// is the lifecycle signal.
func (t *Tracker) run(ctx context.Context, conn trackConn, roomID string) {
	defer func() {
		conn.Close()
		if err := t.service.EndRoom(context.WithoutCancel(ctx), roomID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			t.log.Error("ending livestream failed", "room_id", roomID, "error", err)
		}
	}()

	conn.SetReadLimit(trackerReadLimit)

	for {
		conn.SetReadDeadline(time.Now().Add(trackerReadDeadline))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.log.Debug("tracking socket dropped", "room_id", roomID, "error", err)
			}
			return
		}

		var frame trackerFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			// Malformed frames are tolerated; the stream stays up.
			t.log.Warn("ignoring malformed tracking frame", "room_id", roomID, "error", err)
			continue
		}

		if frame.Type != "viewer_update" || frame.Count == nil {
			continue
		}
		if err := t.service.RecordViewers(ctx, roomID, *frame.Count); err != nil {
			t.log.Warn("recording viewers failed", "room_id", roomID, "error", err)
		}
	}
}

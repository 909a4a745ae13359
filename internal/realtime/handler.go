package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenVerifier validates a presented bearer token and returns the user id it
// was issued for. Token issuance lives in the auth package.
type TokenVerifier interface {
	VerifyAccessToken(token string) (uint, error)
}

// UserStore answers "does this user exist" before a connection is registered.
type UserStore interface {
	Exists(ctx context.Context, userID uint) (bool, error)
}

// FeedLoader supplies the serialized recent-post snapshot pushed to every
// freshly connected feed client.
type FeedLoader interface {
	RecentFeed(ctx context.Context, limit int) (json.RawMessage, error)
}

// How many posts a client receives as its initial snapshot.
const initialFeedSize = 50

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades feed connections and hands them to the hub.
type Handler struct {
	hub    *Hub
	tokens TokenVerifier
	users  UserStore
	feed   FeedLoader
}

func NewHandler(hub *Hub, tokens TokenVerifier, users UserStore, feed FeedLoader) *Handler {
	return &Handler{hub: hub, tokens: tokens, users: users, feed: feed}
}

// Feed handles GET /ws/feed?token={jwt}.
//
// The credential is checked before the connection is registered: a bad token
// is rejected at the HTTP layer, an unknown user gets a policy-violation
// close frame. Either way nothing reaches the registry.
func (h *Handler) Feed(c *gin.Context) {
	token := strings.TrimPrefix(c.Query("token"), "Bearer ")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	userID, err := h.tokens.VerifyAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	exists, err := h.users.Exists(c.Request.Context(), userID)
	if err != nil || !exists {
		closeWithReason(conn, websocket.ClosePolicyViolation, "user not found")
		return
	}

	client := newClient(h.hub, conn, userID)
	h.hub.Register(c.Request.Context(), client)

	go client.writePump()
	go client.readPump()

	if payload, err := NewConnectedMessage(client.id).Encode(); err == nil {
		client.enqueue(payload)
	}
	h.sendInitialFeed(c.Request.Context(), client)
}

// sendInitialFeed pushes the latest posts so the client renders a populated
// feed before any live event arrives. Best effort: a load failure is logged
// and the connection stays up.
func (h *Handler) sendInitialFeed(ctx context.Context, client *Client) {
	if h.feed == nil {
		return
	}
	posts, err := h.feed.RecentFeed(ctx, initialFeedSize)
	if err != nil {
		slog.Warn("initial feed load failed", "userID", client.userID, "error", err)
		return
	}
	if payload, err := NewInitialFeedMessage(posts).Encode(); err == nil {
		client.enqueue(payload)
	}
}

func closeWithReason(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}

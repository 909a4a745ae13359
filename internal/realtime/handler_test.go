package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticVerifier struct {
	userID uint
	err    error
}

func (v staticVerifier) VerifyAccessToken(string) (uint, error) { return v.userID, v.err }

type staticUserStore struct{ exists bool }

func (s staticUserStore) Exists(context.Context, uint) (bool, error) { return s.exists, nil }

type staticFeed struct{ posts json.RawMessage }

func (s staticFeed) RecentFeed(context.Context, int) (json.RawMessage, error) {
	return s.posts, nil
}

func newFeedServer(t *testing.T, h *Handler) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/feed", h.Feed)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dialFeed(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/feed?token=abc"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestFeedConnectSendsConnectedThenInitialFeed(t *testing.T) {
	hub, _ := newTestHub(t)
	posts := json.RawMessage(`[{"id":2,"content":"newest"},{"id":1,"content":"older"}]`)
	h := NewHandler(hub, staticVerifier{userID: 7}, staticUserStore{exists: true}, staticFeed{posts: posts})
	srv := newFeedServer(t, h)

	conn := dialFeed(t, srv)

	var first Message
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, MessageTypeConnected, first.Type)
	assert.NotEmpty(t, first.ClientID)

	var second Message
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, MessageTypeInitialFeed, second.Type)
	assert.JSONEq(t, string(posts), string(second.Posts))
}

func TestFeedRejectsBadToken(t *testing.T) {
	hub, _ := newTestHub(t)
	h := NewHandler(hub, staticVerifier{err: errors.New("expired")}, staticUserStore{exists: true}, nil)
	srv := newFeedServer(t, h)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/feed?token=abc"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
	if conn != nil {
		conn.Close()
	}
}

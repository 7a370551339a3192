package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readPacket(t *testing.T, conn *websocket.Conn) contracts.AdvicePacket {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var p contracts.AdvicePacket
	require.NoError(t, json.Unmarshal(data, &p))
	return p
}

func waitSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Subscribers() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(logger.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitSubscribers(t, h, 2)

	require.NoError(t, h.Save(context.Background(), &contracts.AdvicePacket{RunID: "run-1"}))

	assert.Equal(t, "run-1", readPacket(t, a).RunID)
	assert.Equal(t, "run-1", readPacket(t, b).RunID)
	assert.Equal(t, "websocket", h.Name())
}

func TestHub_ReplaysLastPacket(t *testing.T) {
	h := NewHub(logger.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	require.NoError(t, h.Save(context.Background(), &contracts.AdvicePacket{RunID: "earlier"}))

	conn := dial(t, srv)
	assert.Equal(t, "earlier", readPacket(t, conn).RunID)
}

func TestHub_DisconnectRemovesSubscriber(t *testing.T) {
	h := NewHub(logger.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, srv)
	waitSubscribers(t, h, 1)

	require.NoError(t, conn.Close())
	waitSubscribers(t, h, 0)
}

func TestHub_SaveAfterClose(t *testing.T) {
	h := NewHub(logger.Nop())
	require.NoError(t, h.Close())
	assert.NoError(t, h.Save(context.Background(), &contracts.AdvicePacket{RunID: "x"}))
	assert.Equal(t, 0, h.Subscribers())
}

func TestHub_SaveCancelled(t *testing.T) {
	h := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Save(ctx, &contracts.AdvicePacket{}), context.Canceled)
}

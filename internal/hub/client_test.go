package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4sizn/animal-zoom-sub000/internal/dto"
)

// startServer 启动一个把连接交给 Hub 的测试服务器
func startServer(t *testing.T, h *Hub, identity Identity) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_, _ = h.Connect(conn, identity)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readFrame(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f wireFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestClient_EndToEnd_JoinAndChat(t *testing.T) {
	hs := newHarness(t)
	alice := hs.user("alice")
	room := hs.createRoom(alice, false)
	url := startServer(t, hs.hub, Identity{UserID: alice.ID, Username: alice.Username, DisplayName: alice.DisplayName})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, dto.EventConnected, readFrame(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": dto.EventRoomJoin,
		"data":  map[string]string{"roomCode": room.Code},
	}))
	assert.Equal(t, dto.EventRoomJoined, readFrame(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event":     dto.EventChatMessage,
		"requestId": "c1",
		"data":      map[string]string{"roomCode": room.Code, "message": "hello"},
	}))
	// 广播先于 ack 入队
	assert.Equal(t, dto.EventChatMessage, readFrame(t, conn).Event)
	ack := readFrame(t, conn)
	assert.Equal(t, dto.EventAck, ack.Event)
	assert.Contains(t, string(ack.Data), `"success":true`)

	// 客户端断开后 Hub 按离开房间处理
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return len(hs.hub.ActiveRoomCodes()) == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestClient_EndToEnd_ZeroUserIsClosed(t *testing.T) {
	hs := newHarness(t)
	url := startServer(t, hs.hub, Identity{})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

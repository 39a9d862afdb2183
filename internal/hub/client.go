package hub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/dto"
	"github.com/4sizn/animal-zoom-sub000/internal/metrics"
)

// Identity 是认证中间件解析出的连接身份
type Identity struct {
	UserID      uint
	Username    string
	DisplayName string
}

// Client 代表一个连接到 Hub 的 WebSocket 客户端。
// 它所在的房间只记录在 Registry 中，不在 Client 上重复保存。
type Client struct {
	hub      *Hub
	conn     *websocket.Conn // 测试中可以为 nil
	id       string          // 连接 ID
	identity Identity
	send     chan []byte

	mu     sync.Mutex // 保护 closed
	closed bool

	parkedRoom string // 所在等候室的房间码，由 hub.mu 保护
}

// newClient 创建一个新的 Client 实例
func newClient(hub *Hub, conn *websocket.Conn, identity Identity) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		id:       uuid.NewString(),
		identity: identity,
		send:     make(chan []byte, sendBufferSize),
	}
}

func (c *Client) ID() string   { return c.id }
func (c *Client) UserID() uint { return c.identity.UserID }
func (c *Client) Name() string {
	if c.identity.DisplayName != "" {
		return c.identity.DisplayName
	}
	return c.identity.Username
}

func (c *Client) summary() dto.UserSummary {
	return dto.UserSummary{UserID: c.identity.UserID, Username: c.identity.Username, DisplayName: c.Name()}
}

func (c *Client) logger() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.identity.UserID})
}

// enqueue 非阻塞地把帧放入发送队列。队列满或连接已关闭时丢弃。
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		metrics.DroppedFrames.Inc()
		c.logger().Warn("Client send buffer full, dropping frame")
		return false
	}
}

// emit 编码并发送一个事件给当前连接
func (c *Client) emit(event string, payload interface{}) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		c.logger().WithError(err).Errorf("Failed to encode %s frame", event)
		return
	}
	c.enqueue(frame)
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump 从 WebSocket 连接读取帧并同步交给 Hub 处理，
// 同一连接上的事件因此按到达顺序执行。
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
		c.logger().Info("readPump exited, client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger().WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				c.logger().Debug("WebSocket connection closed normally or read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.logger().Debugf("Received non-text message type: %d", messageType)
			continue
		}
		c.hub.Dispatch(context.Background(), c, message)
	}
}

// WritePump 将消息从 send 通道写到 WebSocket 连接，并定期发送 Ping。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger().Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了发送通道
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger().WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger().WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}

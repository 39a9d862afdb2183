package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/hub"
	"github.com/4sizn/animal-zoom-sub000/internal/middleware"
)

// WebSocketHandler 负责处理 WebSocket 升级请求，并把连接交给 Hub
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler 创建 WebSocketHandler 实例。
// allowedOrigin 为空或 "*" 时接受任意来源。
func NewWebSocketHandler(h *hub.Hub, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
	return &WebSocketHandler{upgrader: upgrader, hub: h}
}

// HandleConnection 处理 GET /ws。路由位于 Auth 中间件之后，身份在升级前已经确定。
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		logrus.Warn("WS Handler: User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了 HTTP 错误
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	client, err := h.hub.Connect(conn, hub.Identity{
		UserID:      userID,
		Username:    c.GetString(middleware.ContextUsername),
		DisplayName: c.GetString(middleware.ContextDisplayName),
	})
	if err != nil {
		logCtx.WithError(err).Warn("WS Handler: Hub refused connection")
		return
	}
	logCtx.WithField("conn_id", client.ID()).Info("WS Handler: Connection upgraded to WebSocket")
}

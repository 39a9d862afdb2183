package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	"github.com/4sizn/animal-zoom-sub000/internal/service"
)

// RoomAPI 是 RoomHandler 需要的房间操作，由 service.RoomService 实现
type RoomAPI interface {
	CreateRoom(ctx context.Context, hostUserID uint, opts service.CreateRoomOptions) (*service.JoinResult, error)
	GetRoomByCode(ctx context.Context, code string) (*service.RoomDetails, error)
	GetRoomParticipants(ctx context.Context, code string) ([]domain.ParticipantView, error)
	JoinRoom(ctx context.Context, userID uint, code string) (*service.JoinResult, error)
	LeaveRoom(ctx context.Context, userID uint, code string) (*service.LeaveResult, error)
	DeleteRoom(ctx context.Context, userID uint, code string) (*domain.Room, error)
	UpdateRoomSettings(ctx context.Context, hostID uint, code string, settings json.RawMessage) (*domain.Room, error)
}

// ChatHistory 由 service.ChatService 实现
type ChatHistory interface {
	History(ctx context.Context, code string, limit int) ([]domain.ChatMessage, error)
}

// RoomNotifier 把 HTTP 侧的房间变更推送给在线连接，由 hub.Hub 实现
type RoomNotifier interface {
	BroadcastRoomConfigUpdate(code string, roomConfig json.RawMessage)
	LeaveUser(userID uint, code string) int
	CloseRoom(code string)
}

// RoomHandler 封装了与房间管理相关的 HTTP 处理逻辑
type RoomHandler struct {
	roomService RoomAPI
	chatService ChatHistory
	notifier    RoomNotifier
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(roomService RoomAPI, chatService ChatHistory, notifier RoomNotifier) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	if chatService == nil {
		panic("ChatService cannot be nil for RoomHandler")
	}
	if notifier == nil {
		panic("RoomNotifier cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService, chatService: chatService, notifier: notifier}
}

// CreateRoomRequest 定义创建房间请求的结构体，所有字段可选
type CreateRoomRequest struct {
	Name               string `json:"name" binding:"max=191"`
	MaxParticipants    int    `json:"maxParticipants" binding:"gte=0,lte=500"`
	WaitingRoomEnabled bool   `json:"waitingRoomEnabled"`
}

// JoinResponse 是创建/加入房间成功的响应
type JoinResponse struct {
	Room   *domain.Room `json:"room"`
	IsHost bool         `json:"isHost"`
	Role   string       `json:"role"`
}

// CreateRoom 处理创建新房间的请求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req CreateRoomRequest
	// 请求体可以为空
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
	}

	res, err := h.roomService.CreateRoom(c.Request.Context(), userID, service.CreateRoomOptions{
		Name:               req.Name,
		MaxParticipants:    req.MaxParticipants,
		WaitingRoomEnabled: req.WaitingRoomEnabled,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "room_code": res.Room.Code}).Info("Handler.CreateRoom: Room created successfully")
	SuccessResponse(c, http.StatusCreated, JoinResponse{Room: res.Room, IsHost: res.IsHost, Role: res.Role})
}

// GetRoom 返回房间及其活跃成员
func (h *RoomHandler) GetRoom(c *gin.Context) {
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}
	details, err := h.roomService.GetRoomByCode(c.Request.Context(), code)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"room": details.Room, "participants": details.Participants})
}

// GetParticipants 返回活跃成员列表
func (h *RoomHandler) GetParticipants(c *gin.Context) {
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}
	participants, err := h.roomService.GetRoomParticipants(c.Request.Context(), code)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"roomCode": code, "participants": participants})
}

// JoinRoom 处理通过房间码加入房间的请求
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}
	res, err := h.roomService.JoinRoom(c.Request.Context(), userID, code)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, JoinResponse{Room: res.Room, IsHost: res.IsHost, Role: res.Role})
}

// LeaveRoom 处理离开房间的请求
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}
	res, err := h.roomService.LeaveRoom(c.Request.Context(), userID, code)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	// 该用户的在线连接也要离开广播组
	detached := h.notifier.LeaveUser(userID, code)
	logrus.WithFields(logrus.Fields{"user_id": userID, "room_code": code, "detached": detached}).Info("Handler.LeaveRoom: User left room")
	SuccessResponse(c, http.StatusOK, gin.H{"roomCode": code, "roomClosed": res.RoomClosed})
}

// DeleteRoom 由主持人关闭房间，并断开所有在线成员与该房间的关联
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}
	if _, err := h.roomService.DeleteRoom(c.Request.Context(), userID, code); err != nil {
		HandleServiceError(c, err)
		return
	}
	h.notifier.CloseRoom(code)
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Room deleted", "roomCode": code})
}

// GetMessages 返回最近的聊天记录，按时间正序
func (h *RoomHandler) GetMessages(c *gin.Context) {
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			ErrorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	messages, err := h.chatService.History(c.Request.Context(), code, limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"roomCode": code, "messages": messages})
}

// UpdateSettings 由主持人更新房间配置，请求体就是配置对象本身
func (h *RoomHandler) UpdateSettings(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}
	settings := json.RawMessage(body)
	room, err := h.roomService.UpdateRoomSettings(c.Request.Context(), userID, code, settings)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.notifier.BroadcastRoomConfigUpdate(code, settings)
	SuccessResponse(c, http.StatusOK, gin.H{"room": room})
}

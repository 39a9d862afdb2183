// Package dto 定义 WebSocket 协议的帧格式和每个事件的载荷结构。
package dto

import (
	"encoding/json"
	"time"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
)

// 客户端发送的事件
const (
	EventRoomJoin            = "room:join"
	EventRoomLeave           = "room:leave"
	EventRoomJoinWaitingRoom = "room:joinWaitingRoom"
	EventRoomAdmitUser       = "room:admitUser"
	EventRoomRejectUser      = "room:rejectUser"
	EventRoomGetParticipants = "room:getParticipants"
	EventRoomGetWaitingUsers = "room:getWaitingParticipants"
	EventChatMessage         = "chat:message" // 双向：服务端以同名事件广播
	EventStateSync           = "state:sync"
)

// 服务端发送的事件
const (
	EventConnected     = "connected"
	EventRoomJoined    = "room:joined"
	EventRoomLeft      = "room:left"
	EventRoomUpdated   = "room:updated"
	EventUserJoined    = "user:joined"
	EventUserWaiting   = "user:waiting"
	EventUserAdmitted  = "user:admitted"
	EventUserRejected  = "user:rejected"
	EventUserLeft      = "user:left"
	EventStateUpdate   = "state:update"
	EventAvatarUpdated = "avatar:updated"
	EventError         = "error"
	EventAck           = "ack"
)

// InboundFrame 是客户端发来的帧。RequestID 不为空时服务端会回复 ack。
type InboundFrame struct {
	Event     string          `json:"event"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// OutboundFrame 是服务端发出的帧，Data 是下面某个具体的载荷类型
type OutboundFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// --- 入站载荷 ---

type RoomCodeRequest struct {
	RoomCode string `json:"roomCode"`
}

type UserActionRequest struct {
	RoomCode string `json:"roomCode"`
	UserID   uint   `json:"userId"`
}

type ChatMessageRequest struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
}

// Vector3 是三维坐标或欧拉角
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type StateSyncRequest struct {
	RoomCode    string          `json:"roomCode"`
	Position    *Vector3        `json:"position,omitempty"`
	Rotation    *Vector3        `json:"rotation,omitempty"`
	AvatarState json.RawMessage `json:"avatarState,omitempty"` // 不透明，原样转发
}

// --- 出站载荷 ---

type ConnectedPayload struct {
	Message string `json:"message"`
	ConnID  string `json:"connId"`
	UserID  uint   `json:"userId"`
}

// UserSummary 是广播中引用的用户信息
type UserSummary struct {
	UserID      uint   `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// RoomJoinedPayload 是成功加入房间时发给加入者的 room:joined
type RoomJoinedPayload struct {
	Room         *domain.Room             `json:"room"`
	IsHost       bool                     `json:"isHost"`
	Participants []domain.ParticipantView `json:"participants"`
	Messages     []domain.ChatMessage     `json:"messages"`
}

// RoomWaitingPayload 是进入等候室时发给申请者的 room:joined
type RoomWaitingPayload struct {
	Room   *domain.Room `json:"room"`
	IsHost bool         `json:"isHost"`
	Status string       `json:"status"`
}

type UserJoinedPayload struct {
	User         UserSummary              `json:"user"`
	RoomCode     string                   `json:"roomCode"`
	Participants []domain.ParticipantView `json:"participants"`
}

type UserWaitingPayload struct {
	User                domain.WaitingParticipant   `json:"user"`
	RoomCode            string                      `json:"roomCode"`
	WaitingParticipants []domain.WaitingParticipant `json:"waitingParticipants"`
}

// UserRoomPayload 用于 user:admitted / user:rejected / user:left
type UserRoomPayload struct {
	UserID   uint   `json:"userId"`
	RoomCode string `json:"roomCode"`
}

type RoomLeftPayload struct {
	RoomCode string `json:"roomCode"`
}

type ChatMessagePayload struct {
	ID         string    `json:"id"`
	SenderID   uint      `json:"senderId"`
	SenderName string    `json:"senderName"`
	RoomID     uint      `json:"roomId"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type StateUpdatePayload struct {
	UserID      uint            `json:"userId"`
	Position    *Vector3        `json:"position"`
	Rotation    *Vector3        `json:"rotation"`
	AvatarState json.RawMessage `json:"avatarState"`
	Timestamp   time.Time       `json:"timestamp"`
}

type AvatarUpdatedPayload struct {
	UserID       uint            `json:"userId"`
	AvatarConfig json.RawMessage `json:"avatarConfig"`
	Timestamp    time.Time       `json:"timestamp"`
}

type RoomUpdatedPayload struct {
	RoomCode   string          `json:"roomCode"`
	RoomConfig json.RawMessage `json:"roomConfig"`
	Timestamp  time.Time       `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Event   string `json:"event,omitempty"` // 触发错误的入站事件
}

// AckPayload 是请求/响应式事件的结果
type AckPayload struct {
	RequestID string      `json:"requestId"`
	Success   bool        `json:"success"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type ParticipantsResult struct {
	RoomCode     string                   `json:"roomCode"`
	Participants []domain.ParticipantView `json:"participants"`
}

type WaitingListResult struct {
	RoomCode            string                      `json:"roomCode"`
	WaitingParticipants []domain.WaitingParticipant `json:"waitingParticipants"`
}

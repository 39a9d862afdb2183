package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	"github.com/4sizn/animal-zoom-sub000/internal/dto"
	"github.com/4sizn/animal-zoom-sub000/internal/metrics"
	"github.com/4sizn/animal-zoom-sub000/internal/registry"
	"github.com/4sizn/animal-zoom-sub000/internal/roomcode"
	"github.com/4sizn/animal-zoom-sub000/internal/service"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024 // 聊天消息最多 2000 个字符

	sendBufferSize = 256

	publishTimeout = 2 * time.Second
)

var errConnClosed = errors.New("connection closed")

// RoomCoordinator 是 Hub 依赖的房间生命周期操作，由 service.RoomService 实现
type RoomCoordinator interface {
	JoinRoom(ctx context.Context, userID uint, code string) (*service.JoinResult, error)
	LeaveRoom(ctx context.Context, userID uint, code string) (*service.LeaveResult, error)
	JoinWaitingRoom(ctx context.Context, userID uint, code string) (*service.WaitingResult, error)
	GetRoomParticipants(ctx context.Context, code string) ([]domain.ParticipantView, error)
	GetWaitingParticipants(ctx context.Context, userID uint, code string) ([]domain.WaitingParticipant, error)
	AdmitParticipant(ctx context.Context, hostID uint, code string, userID uint) (*service.AdmitResult, error)
	RejectParticipant(ctx context.Context, hostID uint, code string, userID uint) error
}

// ChatStore 由 service.ChatService 实现
type ChatStore interface {
	SendMessage(ctx context.Context, senderID uint, senderName, code, text string) (*domain.ChatMessage, error)
	RecentMessages(ctx context.Context, roomID uint) ([]domain.ChatMessage, error)
}

// Fanout 把房间广播转发给其他进程，由 redisstate.Relay 实现
type Fanout interface {
	Publish(ctx context.Context, roomCode, excludeConn string, frame []byte) error
}

type eventHandler func(ctx context.Context, c *Client, data json.RawMessage) (interface{}, error)

// Hub 维护所有连接、按房间码组织的广播组以及等候中的连接。
// 广播组和 Registry 总是在同一把锁内一起修改。
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{} // 房间码 -> 已加入的连接
	waiting map[string]map[*Client]struct{} // 房间码 -> 在等候室中的连接
	fanout  Fanout

	registry registry.Registry
	roomSvc  RoomCoordinator
	chatSvc  ChatStore

	handlers map[string]eventHandler
	queries  map[string]bool // 纯查询事件，结果只通过 ack 返回
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub(reg registry.Registry, roomSvc RoomCoordinator, chatSvc ChatStore) *Hub {
	if reg == nil {
		panic("Registry cannot be nil for Hub")
	}
	if roomSvc == nil {
		panic("RoomCoordinator cannot be nil for Hub")
	}
	if chatSvc == nil {
		panic("ChatStore cannot be nil for Hub")
	}
	h := &Hub{
		clients:  make(map[*Client]struct{}),
		rooms:    make(map[string]map[*Client]struct{}),
		waiting:  make(map[string]map[*Client]struct{}),
		registry: reg,
		roomSvc:  roomSvc,
		chatSvc:  chatSvc,
	}
	h.handlers = map[string]eventHandler{
		dto.EventRoomJoin:            h.handleJoin,
		dto.EventRoomLeave:           h.handleLeave,
		dto.EventRoomJoinWaitingRoom: h.handleJoinWaitingRoom,
		dto.EventRoomAdmitUser:       h.handleAdmit,
		dto.EventRoomRejectUser:      h.handleReject,
		dto.EventRoomGetParticipants: h.handleGetParticipants,
		dto.EventRoomGetWaitingUsers: h.handleGetWaiting,
		dto.EventChatMessage:         h.handleChat,
		dto.EventStateSync:           h.handleStateSync,
	}
	h.queries = map[string]bool{
		dto.EventRoomGetParticipants: true,
		dto.EventRoomGetWaitingUsers: true,
	}
	return h
}

// SetFanout 开启跨进程广播。应在接受连接之前调用。
func (h *Hub) SetFanout(f Fanout) {
	h.mu.Lock()
	h.fanout = f
	h.mu.Unlock()
}

// Connect 接管一个已经升级的 WebSocket 连接。没有有效身份的连接会被立即关闭。
func (h *Hub) Connect(conn *websocket.Conn, identity Identity) (*Client, error) {
	if identity.UserID == 0 {
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		conn.Close()
		return nil, service.ErrUnauthorized
	}
	c := newClient(h, conn, identity)
	h.register(c)
	go c.WritePump()
	go c.ReadPump()
	return c, nil
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSConnections.Inc()
	c.emit(dto.EventConnected, dto.ConnectedPayload{Message: "connected", ConnID: c.id, UserID: c.UserID()})
	c.logger().Info("Client connected")
}

// Disconnect 注销连接。若它仍在某个房间中，按离开房间处理。重复调用是安全的。
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	code, attached := h.detachLocked(c)
	h.unparkLocked(c)
	h.mu.Unlock()

	c.closeSend()
	metrics.WSConnections.Dec()
	if attached {
		h.releaseMembership(context.Background(), c, code)
	}
	c.logger().WithField("room_code", code).Info("Client disconnected")
}

// Dispatch 解析一个入站帧并执行对应的事件处理器。
func (h *Hub) Dispatch(ctx context.Context, c *Client, raw []byte) {
	var in dto.InboundFrame
	if err := json.Unmarshal(raw, &in); err != nil || in.Event == "" {
		metrics.WSEventsTotal.WithLabelValues("malformed", "error").Inc()
		c.emit(dto.EventError, dto.ErrorPayload{Message: "malformed frame"})
		return
	}
	logCtx := c.logger().WithField("event", in.Event)

	handler, ok := h.handlers[in.Event]
	if !ok {
		metrics.WSEventsTotal.WithLabelValues("unknown", "error").Inc()
		logCtx.Debug("Unknown event")
		h.reply(c, in, nil, fmt.Errorf("%w: unknown event %q", service.ErrInvalidInput, in.Event))
		return
	}

	result, err := handler(ctx, c, in.Data)
	if err != nil {
		metrics.WSEventsTotal.WithLabelValues(in.Event, "error").Inc()
		if service.Kind(err) == service.KindInternal {
			logCtx.WithError(err).Error("Event handler failed")
		} else {
			logCtx.WithError(err).Debug("Event rejected")
		}
	} else {
		metrics.WSEventsTotal.WithLabelValues(in.Event, "ok").Inc()
	}
	h.reply(c, in, result, err)
}

// reply 带 requestId 的事件和查询事件回复 ack；非查询事件失败时另外发送 error 事件。
func (h *Hub) reply(c *Client, in dto.InboundFrame, result interface{}, err error) {
	query := h.queries[in.Event]
	if in.RequestID != "" || query {
		ack := dto.AckPayload{RequestID: in.RequestID, Success: err == nil, Data: result}
		if err != nil {
			ack.Error = errorMessage(err)
			ack.Data = nil
		}
		c.emit(dto.EventAck, ack)
	}
	if err != nil && !query {
		c.emit(dto.EventError, dto.ErrorPayload{Message: errorMessage(err), Event: in.Event})
	}
}

func errorMessage(err error) string {
	if service.Kind(err) == service.KindInternal {
		return service.ErrInternalServer.Error()
	}
	return err.Error()
}

// --- 事件处理器 ---

func (h *Hub) handleJoin(ctx context.Context, c *Client, data json.RawMessage) (interface{}, error) {
	var req dto.RoomCodeRequest
	code, err := decodeRoomCode(data, &req, &req.RoomCode)
	if err != nil {
		return nil, err
	}
	join, err := h.roomSvc.JoinRoom(ctx, c.UserID(), code)
	if err != nil {
		return nil, err
	}
	return h.completeJoin(ctx, c, join)
}

func (h *Hub) handleJoinWaitingRoom(ctx context.Context, c *Client, data json.RawMessage) (interface{}, error) {
	var req dto.RoomCodeRequest
	code, err := decodeRoomCode(data, &req, &req.RoomCode)
	if err != nil {
		return nil, err
	}
	res, err := h.roomSvc.JoinWaitingRoom(ctx, c.UserID(), code)
	if err != nil {
		return nil, err
	}
	if res.Status == service.WaitingStatusJoined {
		return h.completeJoin(ctx, c, res.Join)
	}

	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return nil, errConnClosed
	}
	prev, wasAttached := h.detachLocked(c)
	h.parkLocked(c, code)
	h.mu.Unlock()
	if wasAttached {
		h.releaseMembership(ctx, c, prev)
	}

	payload := dto.RoomWaitingPayload{Room: res.Room, IsHost: false, Status: service.WaitingStatusWaiting}
	c.emit(dto.EventRoomJoined, payload)
	if res.Added {
		h.broadcast(code, dto.EventUserWaiting, dto.UserWaitingPayload{
			User:                *res.Participant,
			RoomCode:            code,
			WaitingParticipants: res.Waiting,
		}, "")
	}
	return payload, nil
}

func (h *Hub) handleAdmit(ctx context.Context, c *Client, data json.RawMessage) (interface{}, error) {
	var req dto.UserActionRequest
	code, err := decodeRoomCode(data, &req, &req.RoomCode)
	if err != nil {
		return nil, err
	}
	if req.UserID == 0 {
		return nil, fmt.Errorf("%w: userId is required", service.ErrInvalidInput)
	}
	res, err := h.roomSvc.AdmitParticipant(ctx, c.UserID(), code, req.UserID)
	if err != nil {
		return nil, err
	}

	payload := dto.UserRoomPayload{UserID: req.UserID, RoomCode: code}
	parked := h.notifyDecision(code, req.UserID, dto.EventUserAdmitted, payload)

	if len(parked) == 0 {
		// 被放行的用户不在本节点，仍然通知房间成员名单变化
		participants, err := h.roomSvc.GetRoomParticipants(ctx, code)
		if err == nil {
			h.broadcast(code, dto.EventUserJoined, dto.UserJoinedPayload{
				User:         dto.UserSummary{UserID: res.User.UserID, Username: res.User.Username, DisplayName: res.User.DisplayName},
				RoomCode:     code,
				Participants: participants,
			}, "")
		}
	}
	h.attachAdmitted(ctx, parked, res.Join)
	return payload, nil
}

// attachAdmitted 把被放行用户在等候室中的连接挂到房间。
// 放行后、挂载前就断开的连接不会经过 Disconnect 的离开流程，这里补上，避免留下没有连接的活跃成员。
func (h *Hub) attachAdmitted(ctx context.Context, parked []*Client, join *service.JoinResult) {
	for _, p := range parked {
		_, err := h.completeJoin(ctx, p, join)
		if err == nil {
			continue
		}
		if errors.Is(err, errConnClosed) {
			p.logger().WithField("room_code", join.Room.Code).Info("Admitted connection closed before attach, releasing membership")
			h.releaseMembership(ctx, p, join.Room.Code)
			continue
		}
		p.logger().WithError(err).Warn("Failed to attach admitted connection")
	}
}

func (h *Hub) handleReject(ctx context.Context, c *Client, data json.RawMessage) (interface{}, error) {
	var req dto.UserActionRequest
	code, err := decodeRoomCode(data, &req, &req.RoomCode)
	if err != nil {
		return nil, err
	}
	if req.UserID == 0 {
		return nil, fmt.Errorf("%w: userId is required", service.ErrInvalidInput)
	}
	if err := h.roomSvc.RejectParticipant(ctx, c.UserID(), code, req.UserID); err != nil {
		return nil, err
	}
	payload := dto.UserRoomPayload{UserID: req.UserID, RoomCode: code}
	h.notifyDecision(code, req.UserID, dto.EventUserRejected, payload)
	return payload, nil
}

func (h *Hub) handleLeave(ctx context.Context, c *Client, data json.RawMessage) (interface{}, error) {
	var req dto.RoomCodeRequest
	code, err := decodeRoomCode(data, &req, &req.RoomCode)
	if err != nil {
		return nil, err
	}
	if _, err := h.roomSvc.LeaveRoom(ctx, c.UserID(), code); err != nil {
		return nil, err
	}

	payload := dto.RoomLeftPayload{RoomCode: code}
	c.emit(dto.EventRoomLeft, payload)
	// 成员关系已经结束，同一用户的其他标签页也一起离开
	h.evictUser(c.UserID(), code, c)
	return payload, nil
}

func (h *Hub) handleGetParticipants(ctx context.Context, c *Client, data json.RawMessage) (interface{}, error) {
	var req dto.RoomCodeRequest
	code, err := decodeRoomCode(data, &req, &req.RoomCode)
	if err != nil {
		return nil, err
	}
	participants, err := h.roomSvc.GetRoomParticipants(ctx, code)
	if err != nil {
		return nil, err
	}
	return dto.ParticipantsResult{RoomCode: code, Participants: participants}, nil
}

func (h *Hub) handleGetWaiting(ctx context.Context, c *Client, data json.RawMessage) (interface{}, error) {
	var req dto.RoomCodeRequest
	code, err := decodeRoomCode(data, &req, &req.RoomCode)
	if err != nil {
		return nil, err
	}
	waiting, err := h.roomSvc.GetWaitingParticipants(ctx, c.UserID(), code)
	if err != nil {
		return nil, err
	}
	return dto.WaitingListResult{RoomCode: code, WaitingParticipants: waiting}, nil
}

func (h *Hub) handleChat(ctx context.Context, c *Client, data json.RawMessage) (interface{}, error) {
	var req dto.ChatMessageRequest
	code, err := decodeRoomCode(data, &req, &req.RoomCode)
	if err != nil {
		return nil, err
	}
	if !h.isAttached(c, code) {
		return nil, service.ErrParticipantNotFound
	}
	msg, err := h.chatSvc.SendMessage(ctx, c.UserID(), c.Name(), code, req.Message)
	if err != nil {
		return nil, err
	}
	payload := dto.ChatMessagePayload{
		ID:         msg.MessageID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		RoomID:     msg.RoomID,
		Message:    msg.Content,
		Timestamp:  msg.CreatedAt,
	}
	// 发送者也会收到自己的消息
	h.broadcast(code, dto.EventChatMessage, payload, "")
	return payload, nil
}

func (h *Hub) handleStateSync(ctx context.Context, c *Client, data json.RawMessage) (interface{}, error) {
	var req dto.StateSyncRequest
	code, err := decodeRoomCode(data, &req, &req.RoomCode)
	if err != nil {
		return nil, err
	}
	if !h.isAttached(c, code) {
		return nil, service.ErrParticipantNotFound
	}
	h.broadcast(code, dto.EventStateUpdate, dto.StateUpdatePayload{
		UserID:      c.UserID(),
		Position:    req.Position,
		Rotation:    req.Rotation,
		AvatarState: req.AvatarState,
		Timestamp:   time.Now(),
	}, c.id)
	return nil, nil
}

// --- 房间成员操作 ---

// completeJoin 在服务层加入成功后把连接挂到广播组，
// 先给加入者发 room:joined，再通知其他成员。
func (h *Hub) completeJoin(ctx context.Context, c *Client, join *service.JoinResult) (*dto.RoomJoinedPayload, error) {
	code := join.Room.Code
	participants, err := h.roomSvc.GetRoomParticipants(ctx, code)
	if err != nil {
		return nil, err
	}
	messages, err := h.chatSvc.RecentMessages(ctx, join.Room.ID)
	if err != nil {
		c.logger().WithError(err).WithField("room_code", code).Warn("Failed to load recent messages")
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}

	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return nil, errConnClosed
	}
	prev := h.attachLocked(c, code)
	h.mu.Unlock()
	if prev != "" && prev != code {
		h.releaseMembership(ctx, c, prev)
	}

	payload := &dto.RoomJoinedPayload{Room: join.Room, IsHost: join.IsHost, Participants: participants, Messages: messages}
	c.emit(dto.EventRoomJoined, payload)
	if prev != code {
		h.broadcast(code, dto.EventUserJoined, dto.UserJoinedPayload{
			User:         c.summary(),
			RoomCode:     code,
			Participants: participants,
		}, c.id)
	}
	c.logger().WithFields(logrus.Fields{"room_code": code, "is_host": join.IsHost}).Info("Client joined room")
	return payload, nil
}

// releaseMembership 在连接离开房间后调用：该用户在本节点没有其他连接留在房间中时，
// 退出成员关系并通知其余成员。
func (h *Hub) releaseMembership(ctx context.Context, c *Client, code string) {
	h.mu.RLock()
	present := h.userPresentLocked(c.UserID(), code)
	h.mu.RUnlock()
	if present {
		return
	}
	logCtx := c.logger().WithField("room_code", code)
	if _, err := h.roomSvc.LeaveRoom(ctx, c.UserID(), code); err != nil {
		if service.Kind(err) == service.KindNotFound {
			logCtx.WithError(err).Debug("Membership already gone")
		} else {
			logCtx.WithError(err).Warn("Failed to leave room on detach")
		}
		return
	}
	h.broadcast(code, dto.EventUserLeft, dto.UserRoomPayload{UserID: c.UserID(), RoomCode: code}, "")
}

// evictUser 把该用户在房间中的所有本地连接移出广播组，
// 给除 skip 之外的连接发送 room:left，再通知其余成员 user:left。返回移出的连接数。
func (h *Hub) evictUser(userID uint, code string, skip *Client) int {
	evicted := h.detachUser(userID, code)
	sendRoomLeft(evicted, code, skip)
	h.broadcast(code, dto.EventUserLeft, dto.UserRoomPayload{UserID: userID, RoomCode: code}, "")
	return len(evicted)
}

// detachUser 在一个临界区内把该用户在房间中的本地连接移出广播组和 Registry
func (h *Hub) detachUser(userID uint, code string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	var evicted []*Client
	for c := range h.rooms[code] {
		if c.UserID() == userID {
			evicted = append(evicted, c)
		}
	}
	for _, c := range evicted {
		h.registry.Detach(c.id)
		h.removeMemberLocked(c, code)
	}
	return evicted
}

func sendRoomLeft(conns []*Client, code string, skip *Client) {
	if len(conns) == 0 {
		return
	}
	frame, err := encodeFrame(dto.EventRoomLeft, dto.RoomLeftPayload{RoomCode: code})
	if err != nil {
		return
	}
	for _, c := range conns {
		if c != skip {
			c.enqueue(frame)
		}
	}
}

// notifyDecision 把放行/拒绝结果发给房间成员和该用户在等候室中的连接，返回这些连接
func (h *Hub) notifyDecision(code string, userID uint, event string, payload interface{}) []*Client {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to encode %s frame", event)
		return nil
	}
	h.mu.Lock()
	var parked []*Client
	for c := range h.waiting[code] {
		if c.UserID() == userID {
			parked = append(parked, c)
		}
	}
	for _, c := range parked {
		h.unparkLocked(c)
	}
	h.mu.Unlock()

	for _, c := range parked {
		c.enqueue(frame)
	}
	h.broadcastFrame(code, event, frame, "")
	return parked
}

func (h *Hub) isAttached(c *Client, code string) bool {
	cur, ok := h.registry.RoomOf(c.id)
	return ok && cur == code
}

// attachLocked 把连接加入广播组并登记到 Registry，返回之前所在的房间。调用方持有 h.mu。
func (h *Hub) attachLocked(c *Client, code string) string {
	prev, _ := h.registry.RoomOf(c.id)
	if prev != "" && prev != code {
		h.removeMemberLocked(c, prev)
	}
	h.unparkLocked(c)
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[code] = members
	}
	members[c] = struct{}{}
	h.registry.Attach(c.id, c.UserID(), code)
	return prev
}

func (h *Hub) detachLocked(c *Client) (string, bool) {
	code, ok := h.registry.Detach(c.id)
	if ok {
		h.removeMemberLocked(c, code)
	}
	return code, ok
}

func (h *Hub) removeMemberLocked(c *Client, code string) {
	if members, ok := h.rooms[code]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

func (h *Hub) parkLocked(c *Client, code string) {
	h.unparkLocked(c)
	set, ok := h.waiting[code]
	if !ok {
		set = make(map[*Client]struct{})
		h.waiting[code] = set
	}
	set[c] = struct{}{}
	c.parkedRoom = code
}

func (h *Hub) unparkLocked(c *Client) {
	if c.parkedRoom == "" {
		return
	}
	if set, ok := h.waiting[c.parkedRoom]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.waiting, c.parkedRoom)
		}
	}
	c.parkedRoom = ""
}

func (h *Hub) userPresentLocked(userID uint, code string) bool {
	for c := range h.rooms[code] {
		if c.UserID() == userID {
			return true
		}
	}
	return false
}

// --- 广播 ---

func (h *Hub) broadcast(code, event string, payload interface{}, excludeConn string) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		logrus.WithError(err).WithField("room_code", code).Errorf("Failed to encode %s frame", event)
		return
	}
	h.broadcastFrame(code, event, frame, excludeConn)
}

func (h *Hub) broadcastFrame(code, event string, frame []byte, excludeConn string) {
	h.deliverLocal(code, event, frame, excludeConn)
	h.publish(code, frame, excludeConn)
}

func (h *Hub) publish(code string, frame []byte, excludeConn string) {
	h.mu.RLock()
	f := h.fanout
	h.mu.RUnlock()
	if f == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := f.Publish(ctx, code, excludeConn, frame); err != nil {
		logrus.WithError(err).WithField("room_code", code).Warn("Failed to publish frame to fanout")
	}
}

// deliverLocal 在读锁下复制成员列表，然后在锁外非阻塞发送
func (h *Hub) deliverLocal(code, event string, frame []byte, excludeConn string) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[code]))
	for c := range h.rooms[code] {
		if c.id != excludeConn {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(frame) {
			delivered++
		}
	}
	metrics.BroadcastFrames.WithLabelValues(event).Add(float64(delivered))
	return delivered
}

// DeliverRemote 把其他进程转发来的帧投递给本地成员，签名与 redisstate.DeliverFunc 一致。
// 其他节点上结束的成员关系 (user:left / room:left) 同样作用于本地连接。
func (h *Hub) DeliverRemote(roomCode, excludeConn string, frame []byte) {
	var in dto.InboundFrame
	if err := json.Unmarshal(frame, &in); err == nil {
		switch in.Event {
		case dto.EventUserLeft:
			var left dto.UserRoomPayload
			if err := json.Unmarshal(in.Data, &left); err == nil && left.UserID != 0 {
				sendRoomLeft(h.detachUser(left.UserID, roomCode), roomCode, nil)
			}
		case dto.EventRoomLeft:
			h.closeLocal(roomCode, frame)
			return
		}
	}
	h.deliverLocal(roomCode, "relay", frame, excludeConn)
}

// BroadcastAvatarUpdate 通知该用户所在的每个房间，返回通知的房间数
func (h *Hub) BroadcastAvatarUpdate(userID uint, avatarConfig json.RawMessage) int {
	rooms := h.registry.RoomsOf(userID)
	payload := dto.AvatarUpdatedPayload{UserID: userID, AvatarConfig: avatarConfig, Timestamp: time.Now()}
	for _, code := range rooms {
		h.broadcast(code, dto.EventAvatarUpdated, payload, "")
	}
	return len(rooms)
}

// LeaveUser 在成员关系已由服务层结束后 (例如 HTTP 离开)，把该用户的在线连接移出房间
func (h *Hub) LeaveUser(userID uint, code string) int {
	n := h.evictUser(userID, code, nil)
	logrus.WithFields(logrus.Fields{"user_id": userID, "room_code": code, "connections": n}).Info("User left room outside the gateway")
	return n
}

func (h *Hub) BroadcastRoomConfigUpdate(code string, roomConfig json.RawMessage) {
	h.broadcast(code, dto.EventRoomUpdated, dto.RoomUpdatedPayload{
		RoomCode:   code,
		RoomConfig: roomConfig,
		Timestamp:  time.Now(),
	}, "")
}

// CloseRoom 在房间被删除后把本地成员和等候中的连接移出，并给它们发送 room:left
func (h *Hub) CloseRoom(code string) {
	frame, err := encodeFrame(dto.EventRoomLeft, dto.RoomLeftPayload{RoomCode: code})
	if err != nil {
		return
	}
	n := h.closeLocal(code, frame)
	h.publish(code, frame, "")
	logrus.WithFields(logrus.Fields{"room_code": code, "connections": n}).Info("Room closed in hub")
}

// closeLocal 移出本节点上该房间的成员和等候连接，并发送 room:left 帧
func (h *Hub) closeLocal(code string, frame []byte) int {
	h.mu.Lock()
	var targets []*Client
	for c := range h.rooms[code] {
		h.registry.Detach(c.id)
		targets = append(targets, c)
	}
	delete(h.rooms, code)
	for c := range h.waiting[code] {
		c.parkedRoom = ""
		targets = append(targets, c)
	}
	delete(h.waiting, code)
	h.mu.Unlock()

	for _, c := range targets {
		c.enqueue(frame)
	}
	return len(targets)
}

// ActiveRoomCodes 返回本节点上至少有一个已加入连接的房间码
func (h *Hub) ActiveRoomCodes() []string {
	return h.registry.Rooms()
}

// Shutdown 关闭所有 WebSocket 连接，ReadPump 退出时会完成注销
func (h *Hub) Shutdown() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		if c.conn != nil {
			conns = append(conns, c.conn)
		}
	}
	h.mu.RUnlock()
	for _, conn := range conns {
		conn.Close()
	}
	logrus.WithField("connections", len(conns)).Info("Hub shut down")
}

// --- 编解码 ---

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(dto.OutboundFrame{Event: event, Data: payload})
}

// decodeRoomCode 解析载荷到 v，并校验、规范化 *code 指向的房间码字段
func decodeRoomCode(data json.RawMessage, v interface{}, code *string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: missing data", service.ErrInvalidInput)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return "", fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	normalized := roomcode.Normalize(*code)
	if !roomcode.IsValid(normalized) {
		return "", service.ErrInvalidRoomCode
	}
	return normalized, nil
}

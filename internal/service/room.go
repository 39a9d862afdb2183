package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	"github.com/4sizn/animal-zoom-sub000/internal/metrics"
	"github.com/4sizn/animal-zoom-sub000/internal/repository"
	"github.com/4sizn/animal-zoom-sub000/internal/roomcode"
)

// CreateRoomOptions 是创建房间时的可选参数
type CreateRoomOptions struct {
	Name               string
	MaxParticipants    int
	WaitingRoomEnabled bool
}

// JoinResult 是创建或加入房间的结果
type JoinResult struct {
	Room   *domain.Room
	IsHost bool
	Role   string
}

// RoomDetails 是房间及其活跃成员
type RoomDetails struct {
	Room         *domain.Room
	Participants []domain.ParticipantView
}

// LeaveResult 是离开房间的结果
type LeaveResult struct {
	Room       *domain.Room
	WasHost    bool
	RoomClosed bool // 最后一名成员离开，房间已置为 inactive
}

// 等候室申请的结果状态
const (
	WaitingStatusJoined  = "joined"
	WaitingStatusWaiting = "waiting"
)

// WaitingResult 是 JoinWaitingRoom 的结果。
// Status 为 joined 时 Join 有值；为 waiting 时 Participant 和 Waiting 有值。
type WaitingResult struct {
	Status      string
	Room        *domain.Room
	Join        *JoinResult
	Participant *domain.WaitingParticipant
	Waiting     []domain.WaitingParticipant
	Added       bool // 本次调用新加入了等候室
}

// AdmitResult 是主持人放行等候用户的结果
type AdmitResult struct {
	Join *JoinResult
	User domain.WaitingParticipant
}

// SweepReport 汇总一次房间维护任务的结果
type SweepReport struct {
	Scanned    int
	Reconciled int
	Closed     int
}

// RoomService 负责房间生命周期：创建、加入、离开、删除、容量、主持人角色和等候室。
// 所有修改操作在整个 读-检查-写 序列期间持有该房间码的锁。
type RoomService struct {
	roomRepo    repository.RoomRepository
	userRepo    repository.UserRepository
	waitingRepo repository.WaitingRoomRepository
	codes       *roomcode.Generator
	locks       *roomLocks
	defaultMax  int
	now         func() time.Time
}

// NewRoomService 创建 RoomService 实例。
func NewRoomService(
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	waitingRepo repository.WaitingRoomRepository,
	codes *roomcode.Generator,
	defaultMaxParticipants int,
) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if userRepo == nil {
		panic("UserRepository cannot be nil for RoomService")
	}
	if waitingRepo == nil {
		panic("WaitingRoomRepository cannot be nil for RoomService")
	}
	if codes == nil {
		codes = roomcode.NewGenerator()
	}
	if defaultMaxParticipants <= 0 {
		defaultMaxParticipants = domain.DefaultMaxParticipants
	}
	return &RoomService{
		roomRepo:    roomRepo,
		userRepo:    userRepo,
		waitingRepo: waitingRepo,
		codes:       codes,
		locks:       newRoomLocks(),
		defaultMax:  defaultMaxParticipants,
		now:         time.Now,
	}
}

// CreateRoom 为主持人创建新房间。
// 房间码冲突 (查询已占用或插入时唯一索引冲突) 时重新生成，直到成功或 ctx 取消。
func (s *RoomService) CreateRoom(ctx context.Context, hostUserID uint, opts CreateRoomOptions) (*JoinResult, error) {
	logCtx := logrus.WithField("host_id", hostUserID)
	if hostUserID == 0 {
		return nil, ErrUnauthorized
	}
	maxParticipants := opts.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = s.defaultMax
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		code := s.codes.Generate()
		taken, err := s.roomRepo.IsCodeTaken(ctx, code)
		if err != nil {
			logCtx.WithError(err).Error("Failed to check room code availability")
			return nil, ErrInternalServer
		}
		if taken {
			logCtx.WithFields(logrus.Fields{"room_code": code, "attempt": attempt}).Debug("Room code taken, regenerating")
			continue
		}

		now := s.now()
		room := &domain.Room{
			Code:                code,
			Name:                strings.TrimSpace(opts.Name),
			HostID:              hostUserID,
			Status:              domain.RoomStatusActive,
			CurrentParticipants: 1,
			MaxParticipants:     maxParticipants,
			WaitingRoomEnabled:  opts.WaitingRoomEnabled,
			LastActivityAt:      now,
		}
		host := &domain.Participant{
			UserID:   hostUserID,
			Role:     domain.RoleHost,
			IsActive: true,
			JoinedAt: now,
		}

		unlock := s.locks.lock(code)
		err = s.roomRepo.CreateWithHost(ctx, room, host)
		unlock()
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 两个创建者同时拿到了同一个空闲码，换一个重试
			logCtx.WithFields(logrus.Fields{"room_code": code, "attempt": attempt}).Warn("Room code conflict on insert, regenerating")
			continue
		}
		if err != nil {
			logCtx.WithError(err).Error("Failed to save new room")
			return nil, ErrInternalServer
		}

		metrics.RoomsCreated.Inc()
		logCtx.WithFields(logrus.Fields{"room_code": code, "room_id": room.ID}).Info("Room created successfully")
		return &JoinResult{Room: room, IsHost: true, Role: domain.RoleHost}, nil
	}
}

// GetRoomByCode 返回 active 房间及其活跃成员
func (s *RoomService) GetRoomByCode(ctx context.Context, code string) (*RoomDetails, error) {
	room, err := s.findActiveRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	participants, err := s.listParticipants(ctx, room)
	if err != nil {
		return nil, err
	}
	return &RoomDetails{Room: room, Participants: participants}, nil
}

// GetRoomParticipants 返回房间的活跃成员，按加入顺序
func (s *RoomService) GetRoomParticipants(ctx context.Context, code string) ([]domain.ParticipantView, error) {
	room, err := s.findActiveRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.listParticipants(ctx, room)
}

// JoinRoom 让用户加入房间。已是活跃成员时直接返回原角色，不增加计数。
func (s *RoomService) JoinRoom(ctx context.Context, userID uint, code string) (*JoinResult, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	unlock := s.locks.lock(code)
	defer unlock()

	room, err := s.findActiveRoom(ctx, code)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			metrics.RoomJoinRejected.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}
	return s.joinLocked(ctx, room, userID)
}

// LeaveRoom 让用户离开房间。最后一名活跃成员离开后房间置为 inactive，主持人角色不转移。
func (s *RoomService) LeaveRoom(ctx context.Context, userID uint, code string) (*LeaveResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_code": code})
	unlock := s.locks.lock(code)
	defer unlock()

	room, err := s.findActiveRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	p, err := s.roomRepo.FindActiveParticipant(ctx, room.ID, userID)
	if err != nil {
		return nil, mapRepoError(err, ErrParticipantNotFound)
	}

	now := s.now()
	if err := s.roomRepo.DeactivateParticipant(ctx, room.ID, p.ID, now); err != nil {
		logCtx.WithError(err).Error("Failed to deactivate participant")
		return nil, mapRepoError(err, ErrParticipantNotFound)
	}
	if room.CurrentParticipants > 0 {
		room.CurrentParticipants--
	}
	room.LastActivityAt = now

	result := &LeaveResult{Room: room, WasHost: p.IsHost()}
	remaining, err := s.roomRepo.CountActiveParticipants(ctx, room.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to count remaining participants")
		return nil, ErrInternalServer
	}
	if remaining == 0 {
		if err := s.roomRepo.MarkInactive(ctx, room.ID); err != nil {
			logCtx.WithError(err).Error("Failed to mark empty room inactive")
			return nil, ErrInternalServer
		}
		room.Status = domain.RoomStatusInactive
		result.RoomClosed = true
		s.clearWaiting(ctx, code)
		logCtx.Info("Last participant left, room is now inactive")
	}

	logCtx.WithFields(logrus.Fields{"was_host": result.WasHost, "remaining": remaining}).Info("User left room")
	return result, nil
}

// DeleteRoom 由主持人关闭房间：所有成员离开，房间置为 inactive，等候室清空。
func (s *RoomService) DeleteRoom(ctx context.Context, userID uint, code string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_code": code})
	unlock := s.locks.lock(code)
	defer unlock()

	room, err := s.findActiveRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.requireHost(ctx, room, userID); err != nil {
		logCtx.Warn("Non-host attempted to delete room")
		return nil, err
	}

	now := s.now()
	if err := s.roomRepo.Close(ctx, room.ID, now); err != nil {
		logCtx.WithError(err).Error("Failed to close room")
		return nil, ErrInternalServer
	}
	s.clearWaiting(ctx, code)

	room.Status = domain.RoomStatusInactive
	room.CurrentParticipants = 0
	room.LastActivityAt = now
	logCtx.Info("Room deleted by host")
	return room, nil
}

// JoinWaitingRoom 申请进入房间。
// 房间未开启等候室或用户已是活跃成员时，等同于 JoinRoom 并返回 joined 状态。
func (s *RoomService) JoinWaitingRoom(ctx context.Context, userID uint, code string) (*WaitingResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_code": code})
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	unlock := s.locks.lock(code)
	defer unlock()

	room, err := s.findActiveRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	alreadyActive := false
	if _, err := s.roomRepo.FindActiveParticipant(ctx, room.ID, userID); err == nil {
		alreadyActive = true
	} else if !errors.Is(err, repository.ErrNotFound) {
		logCtx.WithError(err).Error("Failed to look up participant")
		return nil, ErrInternalServer
	}

	if !room.WaitingRoomEnabled || alreadyActive {
		join, err := s.joinLocked(ctx, room, userID)
		if err != nil {
			return nil, err
		}
		return &WaitingResult{Status: WaitingStatusJoined, Room: join.Room, Join: join}, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		logCtx.WithError(err).Warn("Waiting room request from unknown user")
		return nil, mapRepoError(err, ErrUserNotFound)
	}

	entry := domain.WaitingParticipant{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.Name(),
		RequestedAt: s.now(),
	}
	added, err := s.waitingRepo.Add(ctx, code, entry)
	if err != nil {
		logCtx.WithError(err).Error("Failed to add user to waiting room")
		return nil, ErrInternalServer
	}
	waiting, err := s.waitingRepo.List(ctx, code)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list waiting room")
		return nil, ErrInternalServer
	}
	// 重复申请时返回最初的记录
	for i := range waiting {
		if waiting[i].UserID == userID {
			entry = waiting[i]
			break
		}
	}

	logCtx.WithField("added", added).Info("User is waiting for admission")
	return &WaitingResult{
		Status:      WaitingStatusWaiting,
		Room:        room,
		Participant: &entry,
		Waiting:     waiting,
		Added:       added,
	}, nil
}

// GetWaitingParticipants 返回等候列表，仅主持人可调用
func (s *RoomService) GetWaitingParticipants(ctx context.Context, userID uint, code string) ([]domain.WaitingParticipant, error) {
	room, err := s.findActiveRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.requireHost(ctx, room, userID); err != nil {
		return nil, err
	}
	waiting, err := s.waitingRepo.List(ctx, code)
	if err != nil {
		logrus.WithField("room_code", code).WithError(err).Error("Failed to list waiting room")
		return nil, ErrInternalServer
	}
	return waiting, nil
}

// AdmitParticipant 由主持人放行等候中的用户。
// 放行受容量限制：房间已满时返回 ErrRoomFull，用户仍留在等候室。
func (s *RoomService) AdmitParticipant(ctx context.Context, hostID uint, code string, userID uint) (*AdmitResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"host_id": hostID, "user_id": userID, "room_code": code})
	unlock := s.locks.lock(code)
	defer unlock()

	room, err := s.findActiveRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.requireHost(ctx, room, hostID); err != nil {
		logCtx.Warn("Non-host attempted to admit a participant")
		return nil, err
	}
	waiting, err := s.waitingRepo.Get(ctx, code, userID)
	if err != nil {
		return nil, mapRepoError(err, ErrNotWaiting)
	}

	join, err := s.joinLocked(ctx, room, userID)
	if err != nil {
		logCtx.WithError(err).Warn("Admission failed, user stays in waiting room")
		return nil, err
	}
	if err := s.waitingRepo.Remove(ctx, code, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		// 成员行已写入，等候记录残留只影响等候列表展示
		logCtx.WithError(err).Error("Failed to remove admitted user from waiting room")
	}

	logCtx.Info("User admitted from waiting room")
	return &AdmitResult{Join: join, User: *waiting}, nil
}

// RejectParticipant 由主持人拒绝等候中的用户，不授予成员身份
func (s *RoomService) RejectParticipant(ctx context.Context, hostID uint, code string, userID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"host_id": hostID, "user_id": userID, "room_code": code})
	unlock := s.locks.lock(code)
	defer unlock()

	room, err := s.findActiveRoom(ctx, code)
	if err != nil {
		return err
	}
	if err := s.requireHost(ctx, room, hostID); err != nil {
		logCtx.Warn("Non-host attempted to reject a participant")
		return err
	}
	if err := s.waitingRepo.Remove(ctx, code, userID); err != nil {
		return mapRepoError(err, ErrNotWaiting)
	}
	logCtx.Info("User rejected from waiting room")
	return nil
}

// UpdateRoomSettings 保存房间自定义配置，仅主持人可调用。settings 必须是 JSON 对象。
func (s *RoomService) UpdateRoomSettings(ctx context.Context, hostID uint, code string, settings json.RawMessage) (*domain.Room, error) {
	var probe map[string]json.RawMessage
	if len(settings) == 0 || json.Unmarshal(settings, &probe) != nil || probe == nil {
		return nil, ErrInvalidSettings
	}

	unlock := s.locks.lock(code)
	defer unlock()

	room, err := s.findActiveRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.requireHost(ctx, room, hostID); err != nil {
		return nil, err
	}
	if err := s.roomRepo.UpdateSettings(ctx, room.ID, string(settings)); err != nil {
		logrus.WithField("room_code", code).WithError(err).Error("Failed to update room settings")
		return nil, ErrInternalServer
	}
	room.Settings = string(settings)
	return room, nil
}

// SweepRooms 是周期性维护：
// 1. 将 currentParticipants 校正为活跃成员行数；
// 2. 关闭没有活跃成员，或空闲超过 idleAfter 且没有在线连接的房间。
// live 是当前仍有连接挂载的房间码。
func (s *RoomService) SweepRooms(ctx context.Context, idleAfter time.Duration, live []string) (*SweepReport, error) {
	rooms, err := s.roomRepo.ListActive(ctx)
	if err != nil {
		logrus.WithError(err).Error("Sweep: failed to list active rooms")
		return nil, ErrInternalServer
	}
	liveSet := make(map[string]struct{}, len(live))
	for _, code := range live {
		liveSet[code] = struct{}{}
	}

	report := &SweepReport{}
	for i := range rooms {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		reconciled, closed, err := s.sweepRoom(ctx, &rooms[i], idleAfter, liveSet)
		if err != nil {
			logrus.WithField("room_code", rooms[i].Code).WithError(err).Error("Sweep: failed to process room")
			continue
		}
		if reconciled {
			report.Reconciled++
			metrics.RoomsSwept.WithLabelValues("reconciled").Inc()
		}
		if closed {
			report.Closed++
			metrics.RoomsSwept.WithLabelValues("closed").Inc()
		}
	}
	return report, nil
}

func (s *RoomService) sweepRoom(ctx context.Context, stale *domain.Room, idleAfter time.Duration, live map[string]struct{}) (reconciled, closed bool, err error) {
	unlock := s.locks.lock(stale.Code)
	defer unlock()

	// 重新读取，列表中的数据可能已被并发操作修改
	room, err := s.roomRepo.FindByID(ctx, stale.ID)
	if err != nil {
		return false, false, err
	}
	if !room.IsActive() {
		return false, false, nil
	}

	count, err := s.roomRepo.CountActiveParticipants(ctx, room.ID)
	if err != nil {
		return false, false, err
	}
	if int(count) != room.CurrentParticipants {
		if err := s.roomRepo.SetParticipantCount(ctx, room.ID, int(count)); err != nil {
			return false, false, err
		}
		logrus.WithFields(logrus.Fields{
			"room_code": room.Code,
			"counter":   room.CurrentParticipants,
			"active":    count,
		}).Warn("Sweep: participant counter drift corrected")
		reconciled = true
	}

	_, isLive := live[room.Code]
	idle := idleAfter > 0 && s.now().Sub(room.LastActivityAt) > idleAfter
	if !isLive && (count == 0 || idle) {
		if err := s.roomRepo.Close(ctx, room.ID, s.now()); err != nil {
			return reconciled, false, err
		}
		s.clearWaiting(ctx, room.Code)
		logrus.WithFields(logrus.Fields{"room_code": room.Code, "active": count}).Info("Sweep: closed idle room")
		closed = true
	}
	return reconciled, closed, nil
}

// --- 私有辅助函数 ---

// joinLocked 在已持有房间锁的前提下执行加入逻辑
func (s *RoomService) joinLocked(ctx context.Context, room *domain.Room, userID uint) (*JoinResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_code": room.Code})

	existing, err := s.roomRepo.FindActiveParticipant(ctx, room.ID, userID)
	if err == nil {
		logCtx.Debug("User already active in room, join is a no-op")
		return &JoinResult{Room: room, IsHost: existing.IsHost(), Role: existing.Role}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logCtx.WithError(err).Error("Failed to look up participant")
		return nil, ErrInternalServer
	}

	if room.IsFull() {
		metrics.RoomJoinRejected.WithLabelValues("full").Inc()
		logCtx.WithField("max", room.MaxParticipants).Info("Join rejected: room is full")
		return nil, ErrRoomFull
	}

	// 重新加入的原主持人也只是普通成员，主持人角色不会恢复
	role := domain.RoleParticipant
	now := s.now()
	p := &domain.Participant{UserID: userID, Role: role, IsActive: true, JoinedAt: now}
	if err := s.roomRepo.AddParticipant(ctx, room.ID, p); err != nil {
		logCtx.WithError(err).Error("Failed to add participant")
		return nil, ErrInternalServer
	}
	room.CurrentParticipants++
	room.LastActivityAt = now

	logCtx.WithField("role", role).Info("User joined room")
	return &JoinResult{Room: room, IsHost: role == domain.RoleHost, Role: role}, nil
}

// findActiveRoom 按房间码查找 active 房间。查询是幂等的，瞬时错误重试一次。
func (s *RoomService) findActiveRoom(ctx context.Context, code string) (*domain.Room, error) {
	var (
		room *domain.Room
		err  error
	)
	for attempt := 0; attempt < 2; attempt++ {
		room, err = s.roomRepo.FindByCode(ctx, code)
		if err == nil || errors.Is(err, repository.ErrNotFound) || ctx.Err() != nil {
			break
		}
		logrus.WithField("room_code", code).WithError(err).Warn("Room lookup failed, retrying once")
	}
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logrus.WithField("room_code", code).WithError(err).Error("Failed to find room")
		}
		return nil, mapRepoError(err, ErrRoomNotFound)
	}
	if !room.IsActive() {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// requireHost 确认调用者是房间当前的活跃主持人
func (s *RoomService) requireHost(ctx context.Context, room *domain.Room, userID uint) error {
	p, err := s.roomRepo.FindActiveParticipant(ctx, room.ID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrForbidden
		}
		return ErrInternalServer
	}
	if !p.IsHost() {
		return ErrForbidden
	}
	return nil
}

func (s *RoomService) listParticipants(ctx context.Context, room *domain.Room) ([]domain.ParticipantView, error) {
	participants, err := s.roomRepo.ListActiveParticipants(ctx, room.ID)
	if err != nil {
		logrus.WithField("room_code", room.Code).WithError(err).Error("Failed to list participants")
		return nil, ErrInternalServer
	}
	return participants, nil
}

func (s *RoomService) clearWaiting(ctx context.Context, code string) {
	if err := s.waitingRepo.Clear(ctx, code); err != nil {
		logrus.WithField("room_code", code).WithError(err).Warn("Failed to clear waiting room")
	}
}

package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	"github.com/4sizn/animal-zoom-sub000/internal/repository"
	"github.com/4sizn/animal-zoom-sub000/internal/repository/mocks"
	"github.com/4sizn/animal-zoom-sub000/internal/roomcode"
	"github.com/4sizn/animal-zoom-sub000/internal/service"
)

type roomFixture struct {
	rooms   *mocks.RoomRepository
	users   *mocks.UserRepository
	waiting *mocks.WaitingRoomRepository
	svc     *service.RoomService
}

func newRoomFixture(t *testing.T) *roomFixture {
	f := &roomFixture{
		rooms:   mocks.NewRoomRepository(t),
		users:   mocks.NewUserRepository(t),
		waiting: mocks.NewWaitingRoomRepository(t),
	}
	f.svc = service.NewRoomService(f.rooms, f.users, f.waiting, roomcode.NewSeededGenerator(7), 50)
	return f
}

// activeRoom 每次返回新对象，服务会原地修改房间计数
func activeRoom(current, max int) *domain.Room {
	return &domain.Room{
		ID:                  1,
		Code:                "AB12CD",
		HostID:              1,
		Status:              domain.RoomStatusActive,
		CurrentParticipants: current,
		MaxParticipants:     max,
		LastActivityAt:      time.Now(),
	}
}

func hostRow() *domain.Participant {
	return &domain.Participant{ID: 10, RoomID: 1, UserID: 1, Role: domain.RoleHost, IsActive: true}
}

func guestRow(userID uint) *domain.Participant {
	return &domain.Participant{ID: 10 + userID, RoomID: 1, UserID: userID, Role: domain.RoleParticipant, IsActive: true}
}

// --- CreateRoom ---

func TestRoomService_CreateRoom_Success(t *testing.T) {
	// Arrange
	f := newRoomFixture(t)
	f.rooms.On("IsCodeTaken", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()
	f.rooms.On("CreateWithHost", mock.Anything, mock.AnythingOfType("*domain.Room"), mock.AnythingOfType("*domain.Participant")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Room).ID = 1
		}).
		Return(nil).Once()

	// Act
	res, err := f.svc.CreateRoom(context.Background(), 1, service.CreateRoomOptions{Name: " Standup "})

	// Assert
	require.NoError(t, err)
	assert.True(t, res.IsHost)
	assert.Equal(t, domain.RoleHost, res.Role)
	assert.True(t, roomcode.IsValid(res.Room.Code))
	assert.Equal(t, "Standup", res.Room.Name)
	assert.Equal(t, 1, res.Room.CurrentParticipants)
	assert.Equal(t, 50, res.Room.MaxParticipants, "未指定容量时使用默认值")
	assert.Equal(t, domain.RoomStatusActive, res.Room.Status)
}

func TestRoomService_CreateRoom_RetriesTakenCode(t *testing.T) {
	f := newRoomFixture(t)
	var firstCode string
	f.rooms.On("IsCodeTaken", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { firstCode = args.String(1) }).
		Return(true, nil).Once()
	f.rooms.On("IsCodeTaken", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()
	f.rooms.On("CreateWithHost", mock.Anything, mock.AnythingOfType("*domain.Room"), mock.AnythingOfType("*domain.Participant")).
		Return(nil).Once()

	res, err := f.svc.CreateRoom(context.Background(), 1, service.CreateRoomOptions{MaxParticipants: 5})

	require.NoError(t, err)
	assert.NotEqual(t, firstCode, res.Room.Code, "被占用的房间码不应返回")
	assert.Equal(t, 5, res.Room.MaxParticipants)
}

func TestRoomService_CreateRoom_DuplicateInsertRegenerates(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("IsCodeTaken", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Twice()
	f.rooms.On("CreateWithHost", mock.Anything, mock.Anything, mock.Anything).Return(repository.ErrDuplicateEntry).Once()
	f.rooms.On("CreateWithHost", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	res, err := f.svc.CreateRoom(context.Background(), 1, service.CreateRoomOptions{})

	require.NoError(t, err)
	assert.True(t, res.IsHost)
}

func TestRoomService_CreateRoom_CancelledContext(t *testing.T) {
	f := newRoomFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.CreateRoom(ctx, 1, service.CreateRoomOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRoomService_CreateRoom_RequiresUser(t *testing.T) {
	f := newRoomFixture(t)
	_, err := f.svc.CreateRoom(context.Background(), 0, service.CreateRoomOptions{})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

// --- GetRoomByCode ---

func TestRoomService_GetRoomByCode(t *testing.T) {
	f := newRoomFixture(t)
	views := []domain.ParticipantView{{ID: 10, UserID: 1, DisplayName: "Host", Role: domain.RoleHost, IsActive: true}}
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(1, 10), nil).Once()
	f.rooms.On("ListActiveParticipants", mock.Anything, uint(1)).Return(views, nil).Once()

	details, err := f.svc.GetRoomByCode(context.Background(), "AB12CD")

	require.NoError(t, err)
	assert.Equal(t, "AB12CD", details.Room.Code)
	assert.Len(t, details.Participants, 1)
}

func TestRoomService_GetRoomByCode_InactiveIsNotFound(t *testing.T) {
	f := newRoomFixture(t)
	room := activeRoom(0, 10)
	room.Status = domain.RoomStatusInactive
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(room, nil).Once()

	_, err := f.svc.GetRoomByCode(context.Background(), "AB12CD")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
}

func TestRoomService_GetRoomByCode_RetriesTransientReadOnce(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(nil, errors.New("connection reset")).Once()
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(1, 10), nil).Once()
	f.rooms.On("ListActiveParticipants", mock.Anything, uint(1)).Return([]domain.ParticipantView{}, nil).Once()

	_, err := f.svc.GetRoomByCode(context.Background(), "AB12CD")
	assert.NoError(t, err)
}

// --- JoinRoom ---

func TestRoomService_JoinRoom_Success(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(1, 10), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(2)).Return(nil, repository.ErrParticipantNotFound).Once()
	f.rooms.On("AddParticipant", mock.Anything, uint(1), mock.MatchedBy(func(p *domain.Participant) bool {
		return p.UserID == 2 && p.Role == domain.RoleParticipant && p.IsActive
	})).Return(nil).Once()

	res, err := f.svc.JoinRoom(context.Background(), 2, "AB12CD")

	require.NoError(t, err)
	assert.False(t, res.IsHost)
	assert.Equal(t, 2, res.Room.CurrentParticipants)
}

func TestRoomService_JoinRoom_FullRoomRejected(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(2, 2), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(3)).Return(nil, repository.ErrParticipantNotFound).Once()

	_, err := f.svc.JoinRoom(context.Background(), 3, "AB12CD")

	assert.ErrorIs(t, err, service.ErrRoomFull)
	assert.Equal(t, service.KindCapacity, service.Kind(err))
	f.rooms.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_JoinRoom_IsIdempotent(t *testing.T) {
	f := newRoomFixture(t)
	// 已满的房间里，已经是成员的用户重复加入也应成功
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(2, 2), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(2)).Return(guestRow(2), nil).Once()

	res, err := f.svc.JoinRoom(context.Background(), 2, "AB12CD")

	require.NoError(t, err)
	assert.Equal(t, 2, res.Room.CurrentParticipants, "重复加入不增加计数")
	assert.Equal(t, domain.RoleParticipant, res.Role)
	f.rooms.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_JoinRoom_NotFound(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "ZZZZZZ").Return(nil, repository.ErrRoomNotFound).Once()

	_, err := f.svc.JoinRoom(context.Background(), 2, "ZZZZZZ")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	assert.Equal(t, service.KindNotFound, service.Kind(err))
}

func TestRoomService_JoinRoom_OriginalHostRejoinsAsParticipant(t *testing.T) {
	f := newRoomFixture(t)
	// Arrange: 房间由用户 1 创建，但他已经离开
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(1, 10), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(1)).Return(nil, repository.ErrParticipantNotFound).Once()
	f.rooms.On("AddParticipant", mock.Anything, uint(1), mock.MatchedBy(func(p *domain.Participant) bool {
		return p.Role == domain.RoleParticipant
	})).Return(nil).Once()

	// Act
	res, err := f.svc.JoinRoom(context.Background(), 1, "AB12CD")

	// Assert
	require.NoError(t, err)
	assert.False(t, res.IsHost)
	assert.Equal(t, domain.RoleParticipant, res.Role)
}

// --- LeaveRoom ---

func TestRoomService_LeaveRoom_LastParticipantClosesRoom(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(1, 10), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(1)).Return(hostRow(), nil).Once()
	f.rooms.On("DeactivateParticipant", mock.Anything, uint(1), uint(10), mock.AnythingOfType("time.Time")).Return(nil).Once()
	f.rooms.On("CountActiveParticipants", mock.Anything, uint(1)).Return(int64(0), nil).Once()
	f.rooms.On("MarkInactive", mock.Anything, uint(1)).Return(nil).Once()
	f.waiting.On("Clear", mock.Anything, "AB12CD").Return(nil).Once()

	res, err := f.svc.LeaveRoom(context.Background(), 1, "AB12CD")

	require.NoError(t, err)
	assert.True(t, res.WasHost)
	assert.True(t, res.RoomClosed)
	assert.Equal(t, domain.RoomStatusInactive, res.Room.Status)
	assert.Equal(t, 0, res.Room.CurrentParticipants)
}

func TestRoomService_LeaveRoom_OthersRemainKeepsRoomActive(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(2, 10), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(1)).Return(hostRow(), nil).Once()
	f.rooms.On("DeactivateParticipant", mock.Anything, uint(1), uint(10), mock.Anything).Return(nil).Once()
	f.rooms.On("CountActiveParticipants", mock.Anything, uint(1)).Return(int64(1), nil).Once()

	res, err := f.svc.LeaveRoom(context.Background(), 1, "AB12CD")

	require.NoError(t, err)
	assert.False(t, res.RoomClosed)
	assert.Equal(t, domain.RoomStatusActive, res.Room.Status)
	assert.Equal(t, 1, res.Room.CurrentParticipants)
	f.rooms.AssertNotCalled(t, "MarkInactive", mock.Anything, mock.Anything)
}

func TestRoomService_LeaveRoom_NotParticipant(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(1, 10), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(5)).Return(nil, repository.ErrParticipantNotFound).Once()

	_, err := f.svc.LeaveRoom(context.Background(), 5, "AB12CD")
	assert.ErrorIs(t, err, service.ErrParticipantNotFound)
}

// --- DeleteRoom ---

func TestRoomService_DeleteRoom_NonHostForbidden(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(2, 10), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(2)).Return(guestRow(2), nil).Once()

	_, err := f.svc.DeleteRoom(context.Background(), 2, "AB12CD")

	assert.ErrorIs(t, err, service.ErrForbidden)
	f.rooms.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_DeleteRoom_Host(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(2, 10), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(1)).Return(hostRow(), nil).Once()
	f.rooms.On("Close", mock.Anything, uint(1), mock.Anything).Return(nil).Once()
	f.waiting.On("Clear", mock.Anything, "AB12CD").Return(nil).Once()

	room, err := f.svc.DeleteRoom(context.Background(), 1, "AB12CD")

	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusInactive, room.Status)
	assert.Equal(t, 0, room.CurrentParticipants)
}

// --- Waiting room ---

func waitingRoom() *domain.Room {
	r := activeRoom(1, 10)
	r.WaitingRoomEnabled = true
	return r
}

func TestRoomService_JoinWaitingRoom_PutsUserInWaitingSet(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(waitingRoom(), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(2)).Return(nil, repository.ErrParticipantNotFound).Once()
	f.users.On("FindByID", mock.Anything, uint(2)).Return(&domain.User{ID: 2, Username: "bob", DisplayName: "Bob"}, nil).Once()
	f.waiting.On("Add", mock.Anything, "AB12CD", mock.MatchedBy(func(w domain.WaitingParticipant) bool {
		return w.UserID == 2 && w.DisplayName == "Bob"
	})).Return(true, nil).Once()
	f.waiting.On("List", mock.Anything, "AB12CD").
		Return([]domain.WaitingParticipant{{UserID: 2, Username: "bob", DisplayName: "Bob"}}, nil).Once()

	res, err := f.svc.JoinWaitingRoom(context.Background(), 2, "AB12CD")

	require.NoError(t, err)
	assert.Equal(t, service.WaitingStatusWaiting, res.Status)
	assert.True(t, res.Added)
	assert.Len(t, res.Waiting, 1)
	assert.Equal(t, uint(2), res.Participant.UserID)
	f.rooms.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_JoinWaitingRoom_DisabledJoinsDirectly(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(1, 10), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(2)).Return(nil, repository.ErrParticipantNotFound).Twice()
	f.rooms.On("AddParticipant", mock.Anything, uint(1), mock.Anything).Return(nil).Once()

	res, err := f.svc.JoinWaitingRoom(context.Background(), 2, "AB12CD")

	require.NoError(t, err)
	assert.Equal(t, service.WaitingStatusJoined, res.Status)
	require.NotNil(t, res.Join)
	assert.Equal(t, 2, res.Join.Room.CurrentParticipants)
}

func TestRoomService_GetWaitingParticipants_HostOnly(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(waitingRoom(), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(2)).Return(nil, repository.ErrParticipantNotFound).Once()

	_, err := f.svc.GetWaitingParticipants(context.Background(), 2, "AB12CD")
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestRoomService_AdmitParticipant_Success(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(waitingRoom(), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(1)).Return(hostRow(), nil).Once()
	f.waiting.On("Get", mock.Anything, "AB12CD", uint(2)).Return(&domain.WaitingParticipant{UserID: 2, DisplayName: "Bob"}, nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(2)).Return(nil, repository.ErrParticipantNotFound).Once()
	f.rooms.On("AddParticipant", mock.Anything, uint(1), mock.Anything).Return(nil).Once()
	f.waiting.On("Remove", mock.Anything, "AB12CD", uint(2)).Return(nil).Once()

	res, err := f.svc.AdmitParticipant(context.Background(), 1, "AB12CD", 2)

	require.NoError(t, err)
	assert.Equal(t, "Bob", res.User.DisplayName)
	assert.Equal(t, 2, res.Join.Room.CurrentParticipants)
}

func TestRoomService_AdmitParticipant_NonHostForbidden(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(waitingRoom(), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(3)).Return(guestRow(3), nil).Once()

	_, err := f.svc.AdmitParticipant(context.Background(), 3, "AB12CD", 2)

	assert.ErrorIs(t, err, service.ErrForbidden)
	f.waiting.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_AdmitParticipant_FullRoomKeepsUserWaiting(t *testing.T) {
	f := newRoomFixture(t)
	room := waitingRoom()
	room.CurrentParticipants, room.MaxParticipants = 2, 2
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(room, nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(1)).Return(hostRow(), nil).Once()
	f.waiting.On("Get", mock.Anything, "AB12CD", uint(2)).Return(&domain.WaitingParticipant{UserID: 2}, nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(2)).Return(nil, repository.ErrParticipantNotFound).Once()

	_, err := f.svc.AdmitParticipant(context.Background(), 1, "AB12CD", 2)

	assert.ErrorIs(t, err, service.ErrRoomFull)
	f.waiting.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_AdmitParticipant_NotWaiting(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(waitingRoom(), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(1)).Return(hostRow(), nil).Once()
	f.waiting.On("Get", mock.Anything, "AB12CD", uint(9)).Return(nil, repository.ErrWaitingNotFound).Once()

	_, err := f.svc.AdmitParticipant(context.Background(), 1, "AB12CD", 9)
	assert.ErrorIs(t, err, service.ErrNotWaiting)
	assert.Equal(t, service.KindNotFound, service.Kind(err))
}

func TestRoomService_RejectParticipant(t *testing.T) {
	f := newRoomFixture(t)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(waitingRoom(), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(1)).Return(hostRow(), nil).Once()
	f.waiting.On("Remove", mock.Anything, "AB12CD", uint(2)).Return(nil).Once()

	err := f.svc.RejectParticipant(context.Background(), 1, "AB12CD", 2)

	require.NoError(t, err)
	f.rooms.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)
}

// --- UpdateRoomSettings ---

func TestRoomService_UpdateRoomSettings(t *testing.T) {
	f := newRoomFixture(t)
	settings := json.RawMessage(`{"theme":"forest"}`)
	f.rooms.On("FindByCode", mock.Anything, "AB12CD").Return(activeRoom(1, 10), nil).Once()
	f.rooms.On("FindActiveParticipant", mock.Anything, uint(1), uint(1)).Return(hostRow(), nil).Once()
	f.rooms.On("UpdateSettings", mock.Anything, uint(1), `{"theme":"forest"}`).Return(nil).Once()

	room, err := f.svc.UpdateRoomSettings(context.Background(), 1, "AB12CD", settings)

	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"forest"}`, room.Settings)
}

func TestRoomService_UpdateRoomSettings_RejectsNonObject(t *testing.T) {
	f := newRoomFixture(t)
	for _, raw := range []string{``, `[1,2]`, `"x"`, `null`, `{bad`} {
		_, err := f.svc.UpdateRoomSettings(context.Background(), 1, "AB12CD", json.RawMessage(raw))
		assert.ErrorIs(t, err, service.ErrInvalidSettings, "input %q", raw)
	}
}

// --- SweepRooms ---

func TestRoomService_SweepRooms(t *testing.T) {
	f := newRoomFixture(t)
	drifted := &domain.Room{ID: 1, Code: "AAAAAA", Status: domain.RoomStatusActive, CurrentParticipants: 2, LastActivityAt: time.Now()}
	idle := &domain.Room{ID: 2, Code: "BBBBBB", Status: domain.RoomStatusActive, CurrentParticipants: 1, LastActivityAt: time.Now().Add(-48 * time.Hour)}
	liveIdle := &domain.Room{ID: 3, Code: "CCCCCC", Status: domain.RoomStatusActive, CurrentParticipants: 1, LastActivityAt: time.Now().Add(-48 * time.Hour)}

	f.rooms.On("ListActive", mock.Anything).Return([]domain.Room{*drifted, *idle, *liveIdle}, nil).Once()
	f.rooms.On("FindByID", mock.Anything, uint(1)).Return(drifted, nil).Once()
	f.rooms.On("FindByID", mock.Anything, uint(2)).Return(idle, nil).Once()
	f.rooms.On("FindByID", mock.Anything, uint(3)).Return(liveIdle, nil).Once()

	// 房间 1：计数器漂移，校正为 3
	f.rooms.On("CountActiveParticipants", mock.Anything, uint(1)).Return(int64(3), nil).Once()
	f.rooms.On("SetParticipantCount", mock.Anything, uint(1), 3).Return(nil).Once()
	// 房间 2：空闲且没有在线连接，关闭
	f.rooms.On("CountActiveParticipants", mock.Anything, uint(2)).Return(int64(1), nil).Once()
	f.rooms.On("Close", mock.Anything, uint(2), mock.Anything).Return(nil).Once()
	f.waiting.On("Clear", mock.Anything, "BBBBBB").Return(nil).Once()
	// 房间 3：空闲但仍有在线连接，保留
	f.rooms.On("CountActiveParticipants", mock.Anything, uint(3)).Return(int64(1), nil).Once()

	report, err := f.svc.SweepRooms(context.Background(), 24*time.Hour, []string{"CCCCCC"})

	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.Reconciled)
	assert.Equal(t, 1, report.Closed)
}

// --- Kind ---

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want service.ErrorKind
	}{
		{nil, service.KindNone},
		{service.ErrRoomNotFound, service.KindNotFound},
		{service.ErrNotWaiting, service.KindNotFound},
		{service.ErrRoomFull, service.KindCapacity},
		{service.ErrForbidden, service.KindForbidden},
		{service.ErrCodeConflict, service.KindConflict},
		{service.ErrUnauthorized, service.KindUnauthorized},
		{service.ErrInvalidRoomCode, service.KindInvalid},
		{errors.New("boom"), service.KindInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, service.Kind(tc.err), "err=%v", tc.err)
	}
}

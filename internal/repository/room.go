package repository

import (
	"context"
	"time"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
)

// RoomRepository 定义了房间及其成员记录的持久化操作。
// 涉及计数器的方法必须在同一个事务里完成成员行和计数器的修改。
type RoomRepository interface {
	// FindByID 根据房间 ID 查找房间 (不区分状态)。
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindByCode 根据房间码查找房间 (不区分状态)。找不到返回 ErrRoomNotFound。
	FindByCode(ctx context.Context, code string) (*domain.Room, error)

	// IsCodeTaken 检查房间码是否已被任意房间占用。
	IsCodeTaken(ctx context.Context, code string) (bool, error)

	// CreateWithHost 在一个事务中插入房间和主持人成员行。
	// 房间码冲突时返回 ErrDuplicateEntry。
	CreateWithHost(ctx context.Context, room *domain.Room, host *domain.Participant) error

	// FindActiveParticipant 查找 (room, user) 的活跃成员行，找不到返回 ErrParticipantNotFound。
	FindActiveParticipant(ctx context.Context, roomID, userID uint) (*domain.Participant, error)

	// AddParticipant 插入成员行，计数器加一并刷新 last_activity_at。
	AddParticipant(ctx context.Context, roomID uint, p *domain.Participant) error

	// DeactivateParticipant 将成员行标记为离开，计数器减一 (下限为 0) 并刷新 last_activity_at。
	DeactivateParticipant(ctx context.Context, roomID, participantID uint, leftAt time.Time) error

	// CountActiveParticipants 统计房间的活跃成员行数。
	CountActiveParticipants(ctx context.Context, roomID uint) (int64, error)

	// ListActiveParticipants 返回带显示名的活跃成员，按插入顺序。
	ListActiveParticipants(ctx context.Context, roomID uint) ([]domain.ParticipantView, error)

	// MarkInactive 将房间状态置为 inactive。
	MarkInactive(ctx context.Context, roomID uint) error

	// Close 将所有成员行置为离开，房间置为 inactive 且计数器归零。
	Close(ctx context.Context, roomID uint, at time.Time) error

	// SetParticipantCount 直接写入计数器，用于维护任务纠正漂移。
	SetParticipantCount(ctx context.Context, roomID uint, count int) error

	// UpdateSettings 保存房间自定义配置。
	UpdateSettings(ctx context.Context, roomID uint, settings string) error

	// TouchActivity 刷新 last_activity_at。
	TouchActivity(ctx context.Context, roomID uint, at time.Time) error

	// ListActive 返回所有 active 房间。
	ListActive(ctx context.Context) ([]domain.Room, error)
}

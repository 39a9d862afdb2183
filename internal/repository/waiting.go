package repository

import (
	"context"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
)

// WaitingRoomRepository 保存等候室中的用户，以房间码为键。
// 数据是临时的，通常由 Redis 实现。
type WaitingRoomRepository interface {
	// Add 将用户加入等候室；已存在时不覆盖，返回 false。
	Add(ctx context.Context, roomCode string, w domain.WaitingParticipant) (bool, error)

	// Get 查找等候中的用户，找不到返回 ErrWaitingNotFound。
	Get(ctx context.Context, roomCode string, userID uint) (*domain.WaitingParticipant, error)

	// Remove 将用户移出等候室，用户不在等候室时返回 ErrWaitingNotFound。
	Remove(ctx context.Context, roomCode string, userID uint) error

	// List 按申请时间顺序返回等候中的用户。
	List(ctx context.Context, roomCode string) ([]domain.WaitingParticipant, error)

	// Clear 清空房间的等候室。
	Clear(ctx context.Context, roomCode string) error
}

package repository

import (
	"context"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
)

// MessageRepository 是聊天记录的持久化存储。
type MessageRepository interface {
	// Save 保存一条聊天消息。
	Save(ctx context.Context, msg *domain.ChatMessage) error

	// ListRecent 返回房间最近的 limit 条消息，按时间从旧到新排列。
	ListRecent(ctx context.Context, roomID uint, limit int) ([]domain.ChatMessage, error)
}

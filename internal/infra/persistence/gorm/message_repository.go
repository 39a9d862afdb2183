package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
)

// GormMessageRepository 是 MessageRepository 接口的 GORM 实现
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository 创建 GormMessageRepository 实例
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMessageRepository")
	}
	return &GormMessageRepository{db: db}
}

// Save 保存一条聊天消息
func (r *GormMessageRepository) Save(ctx context.Context, msg *domain.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("gorm: save chat message for room %d: %w", msg.RoomID, err)
	}
	return nil
}

// ListRecent 取最近 limit 条，再翻转为从旧到新
func (r *GormMessageRepository) ListRecent(ctx context.Context, roomID uint, limit int) ([]domain.ChatMessage, error) {
	messages := make([]domain.ChatMessage, 0)
	if limit <= 0 {
		return messages, nil
	}
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list recent messages for room %d: %w", roomID, err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	"github.com/4sizn/animal-zoom-sub000/internal/repository"
)

// GormRoomRepository 是 RoomRepository 接口的 GORM 实现
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository 创建 GormRoomRepository 实例
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// FindByID 实现根据房间 ID 查找房间
func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

// FindByCode 实现根据房间码查找房间
func (r *GormRoomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by code '%s': %w", code, err)
	}
	return &room, nil
}

// IsCodeTaken 实现检查房间码是否存在
func (r *GormRoomRepository) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	// 唯一索引覆盖所有状态的房间，所以这里不过滤 status
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count rooms by code '%s': %w", code, err)
	}
	return count > 0, nil
}

// CreateWithHost 在一个事务里写入房间和主持人成员行
func (r *GormRoomRepository) CreateWithHost(ctx context.Context, room *domain.Room, host *domain.Participant) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		host.RoomID = room.ID
		return tx.Create(host).Error
	})
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create room '%s' with host %d: %w", room.Code, host.UserID, err)
	}
	return nil
}

// FindActiveParticipant 查找 (room, user) 的活跃成员行
func (r *GormRoomRepository) FindActiveParticipant(ctx context.Context, roomID, userID uint) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ? AND is_active = ?", roomID, userID, true).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("gorm: find active participant (room: %d, user: %d): %w", roomID, userID, err)
	}
	return &p, nil
}

// AddParticipant 插入成员行并维护计数器
func (r *GormRoomRepository) AddParticipant(ctx context.Context, roomID uint, p *domain.Participant) error {
	p.RoomID = roomID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Room{}).Where("id = ?", roomID).Updates(map[string]interface{}{
			"current_participants": gorm.Expr("current_participants + 1"),
			"last_activity_at":     p.JoinedAt,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("gorm: add participant (room: %d, user: %d): %w", roomID, p.UserID, err)
	}
	return nil
}

// DeactivateParticipant 将成员行标记为离开，计数器减一 (下限 0)
func (r *GormRoomRepository) DeactivateParticipant(ctx context.Context, roomID, participantID uint, leftAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Participant{}).
			Where("id = ? AND room_id = ? AND is_active = ?", participantID, roomID, true).
			Updates(map[string]interface{}{"is_active": false, "left_at": leftAt})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrParticipantNotFound
		}
		return tx.Model(&domain.Room{}).Where("id = ?", roomID).Updates(map[string]interface{}{
			"current_participants": gorm.Expr("CASE WHEN current_participants > 0 THEN current_participants - 1 ELSE 0 END"),
			"last_activity_at":     leftAt,
		}).Error
	})
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return err
		}
		return fmt.Errorf("gorm: deactivate participant %d in room %d: %w", participantID, roomID, err)
	}
	return nil
}

// CountActiveParticipants 统计活跃成员行
func (r *GormRoomRepository) CountActiveParticipants(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("room_id = ? AND is_active = ?", roomID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count active participants for room %d: %w", roomID, err)
	}
	return count, nil
}

// ListActiveParticipants 关联 users 表取显示名，按插入顺序返回
func (r *GormRoomRepository) ListActiveParticipants(ctx context.Context, roomID uint) ([]domain.ParticipantView, error) {
	views := make([]domain.ParticipantView, 0)
	err := r.db.WithContext(ctx).
		Table("participants").
		Select("participants.id, participants.user_id, COALESCE(NULLIF(users.display_name, ''), users.username, '') AS display_name, participants.role, participants.is_active, participants.joined_at").
		Joins("LEFT JOIN users ON users.id = participants.user_id").
		Where("participants.room_id = ? AND participants.is_active = ?", roomID, true).
		Order("participants.id ASC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list active participants for room %d: %w", roomID, err)
	}
	return views, nil
}

// MarkInactive 将房间状态置为 inactive
func (r *GormRoomRepository) MarkInactive(ctx context.Context, roomID uint) error {
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ?", roomID).
		Update("status", domain.RoomStatusInactive).Error
	if err != nil {
		return fmt.Errorf("gorm: mark room %d inactive: %w", roomID, err)
	}
	return nil
}

// Close 批量让所有成员离开，房间置为 inactive 并清零计数器
func (r *GormRoomRepository) Close(ctx context.Context, roomID uint, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Participant{}).
			Where("room_id = ? AND is_active = ?", roomID, true).
			Updates(map[string]interface{}{"is_active": false, "left_at": at}).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Room{}).Where("id = ?", roomID).Updates(map[string]interface{}{
			"status":               domain.RoomStatusInactive,
			"current_participants": 0,
			"last_activity_at":     at,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("gorm: close room %d: %w", roomID, err)
	}
	return nil
}

// SetParticipantCount 直接写入计数器
func (r *GormRoomRepository) SetParticipantCount(ctx context.Context, roomID uint, count int) error {
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ?", roomID).
		Update("current_participants", count).Error
	if err != nil {
		return fmt.Errorf("gorm: set participant count for room %d: %w", roomID, err)
	}
	return nil
}

// UpdateSettings 保存房间配置
func (r *GormRoomRepository) UpdateSettings(ctx context.Context, roomID uint, settings string) error {
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ?", roomID).
		Update("settings", settings).Error
	if err != nil {
		return fmt.Errorf("gorm: update settings for room %d: %w", roomID, err)
	}
	return nil
}

// TouchActivity 刷新 last_activity_at
func (r *GormRoomRepository) TouchActivity(ctx context.Context, roomID uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ?", roomID).
		Update("last_activity_at", at).Error
	if err != nil {
		return fmt.Errorf("gorm: touch activity for room %d: %w", roomID, err)
	}
	return nil
}

// ListActive 返回所有 active 房间
func (r *GormRoomRepository) ListActive(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).Where("status = ?", domain.RoomStatusActive).Order("id ASC").Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list active rooms: %w", err)
	}
	return rooms, nil
}

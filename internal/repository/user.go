package repository

import (
	"context"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
)

// UserRepository 定义了用户数据的存储和检索操作。
type UserRepository interface {
	// FindByUsername 根据用户名查找用户，找不到返回 ErrUserNotFound。
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByID 根据用户 ID 查找用户，找不到返回 ErrUserNotFound。
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// Save 创建或更新用户。用户名冲突时返回 ErrDuplicateEntry。
	Save(ctx context.Context, user *domain.User) error

	// UpdateAvatar 保存用户的头像配置。
	UpdateAvatar(ctx context.Context, id uint, avatarConfig string) error
}

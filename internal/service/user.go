package service

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	"github.com/4sizn/animal-zoom-sub000/internal/repository"
)

// UserService 负责用户资料和头像配置
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建 UserService 实例
func NewUserService(userRepo repository.UserRepository) *UserService {
	if userRepo == nil {
		panic("UserRepository cannot be nil for UserService")
	}
	return &UserService{userRepo: userRepo}
}

// Profile 返回用户资料 (不含密码)
func (s *UserService) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, ErrUserNotFound)
	}
	user.Password = ""
	return user, nil
}

// UpdateAvatar 保存头像配置。配置是不透明的 JSON 对象，服务端不解析其内容。
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, avatarConfig json.RawMessage) error {
	var probe map[string]json.RawMessage
	if len(avatarConfig) == 0 || json.Unmarshal(avatarConfig, &probe) != nil || probe == nil {
		return ErrInvalidInput
	}
	if err := s.userRepo.UpdateAvatar(ctx, userID, string(avatarConfig)); err != nil {
		logrus.WithField("user_id", userID).WithError(err).Warn("Failed to update avatar")
		return mapRepoError(err, ErrUserNotFound)
	}
	return nil
}

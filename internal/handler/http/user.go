package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
)

// ProfileAPI 由 service.UserService 实现
type ProfileAPI interface {
	Profile(ctx context.Context, userID uint) (*domain.User, error)
	UpdateAvatar(ctx context.Context, userID uint, avatarConfig json.RawMessage) error
}

// AvatarNotifier 由 hub.Hub 实现
type AvatarNotifier interface {
	BroadcastAvatarUpdate(userID uint, avatarConfig json.RawMessage) int
}

type UserHandler struct {
	userService ProfileAPI
	notifier    AvatarNotifier
}

func NewUserHandler(userService ProfileAPI, notifier AvatarNotifier) *UserHandler {
	if userService == nil {
		panic("UserService cannot be nil for UserHandler")
	}
	if notifier == nil {
		panic("AvatarNotifier cannot be nil for UserHandler")
	}
	return &UserHandler{userService: userService, notifier: notifier}
}

type UpdateAvatarRequest struct {
	AvatarConfig json.RawMessage `json:"avatarConfig" binding:"required"`
}

// Me 返回当前用户资料
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.Profile(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"user": user})
}

// UpdateAvatar 保存头像配置，并推送给该用户所在的所有房间
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req UpdateAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	if err := h.userService.UpdateAvatar(c.Request.Context(), userID, req.AvatarConfig); err != nil {
		HandleServiceError(c, err)
		return
	}
	rooms := h.notifier.BroadcastAvatarUpdate(userID, req.AvatarConfig)
	logrus.WithFields(logrus.Fields{"user_id": userID, "rooms": rooms}).Info("Handler.UpdateAvatar: Avatar updated")
	SuccessResponse(c, http.StatusOK, gin.H{"avatarConfig": req.AvatarConfig, "notifiedRooms": rooms})
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/middleware"
	"github.com/4sizn/animal-zoom-sub000/internal/roomcode"
)

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// requireUserID 读取 Auth 中间件设置的用户 ID，缺失时直接返回 401
func requireUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		logrus.WithField("path", c.FullPath()).Warn("Handler: User ID not found in context, middleware missing or failed?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	return userID, true
}

// roomCodeParam 规范化并校验路径中的房间码
func roomCodeParam(c *gin.Context) (string, bool) {
	code := roomcode.Normalize(c.Param("code"))
	if !roomcode.IsValid(code) {
		ErrorResponse(c, http.StatusBadRequest, "invalid room code")
		return "", false
	}
	return code, true
}

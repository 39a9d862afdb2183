package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/service"
)

// HandleServiceError 根据服务层错误分类返回对应的 HTTP 状态码
func HandleServiceError(c *gin.Context, err error) {
	switch service.Kind(err) {
	case service.KindNotFound:
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case service.KindCapacity, service.KindConflict:
		ErrorResponse(c, http.StatusConflict, err.Error())
	case service.KindForbidden:
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case service.KindUnauthorized:
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case service.KindInvalid:
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

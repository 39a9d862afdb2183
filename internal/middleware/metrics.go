package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/4sizn/animal-zoom-sub000/internal/metrics"
)

// Metrics 记录 HTTP 请求数和耗时。
// path 标签使用路由模板 (如 /api/rooms/:code)，避免房间码造成高基数。
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school-system/backend/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 声明了 Content-Length 且超限的请求直接 413；未声明长度（分块传输）的请求体
// 由 MaxBytesReader 截断，读取超限时绑定失败走 400
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}

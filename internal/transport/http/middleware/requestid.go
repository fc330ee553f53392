package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

const ctxRequestID = "request_id"

// 调用方传来的 ID 只有短且字符安全时才沿用，不然会被原样写进日志
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if !validRequestID.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Header(HeaderRequestID, rid)
		c.Set(ctxRequestID, rid)
		c.Next()
	}
}

func RequestIDFrom(c *gin.Context) string { return c.GetString(ctxRequestID) }

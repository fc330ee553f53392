package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "user-auth-api/internal/transport/http/response"
)

// ConcurrencyLimit 同时处理的请求数上限（bcrypt 吃 CPU，DB 连接池也有限）。
// 没名额时最多排队 wait；wait<=0 时等到请求自身的 ctx 结束。等不到回 503。
func ConcurrencyLimit(max int64, wait time.Duration) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			ctx := c.Request.Context()
			if wait > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, wait)
				defer cancel()
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				c.Header("Retry-After", "1")
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, resp.Fail(resp.MsgServerBusy))
				return
			}
		}
		defer sem.Release(1)
		c.Next()
	}
}

// MaxBodyBytes 声明的 Content-Length 超限直接 413；
// 长度未知的在读取时由 MaxBytesReader 拦截，ez 再映射成 413
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Fail(resp.MsgBodyTooLarge))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// Timeout 给下游（DB、Redis、排队）的 ctx 加期限，d<=0 不限。
// 处理器到期还没写响应时补 504。
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, resp.Fail(resp.MsgRequestTimeout))
		}
	}
}

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"user-auth-api/internal/core/server"
	"user-auth-api/internal/transport/http/handler"
	mdw "user-auth-api/internal/transport/http/middleware"
)

type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	MaxConcurrent  int64
	QueueWait      time.Duration // 0：排队直到请求超时
}

func (o Options) withDefaults() Options {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 300
	}
	return o
}

func NewAPIEngine(l *zap.Logger, svc handler.AuthService, o Options) *gin.Engine {
	o = o.withDefaults()
	r := server.NewRouter(l)

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.AccessLog(l),
		mdw.Metrics(prometheus.DefaultRegisterer),
		mdw.Timeout(o.RequestTimeout),
		mdw.ConcurrencyLimit(o.MaxConcurrent, o.QueueWait),
		mdw.MaxBodyBytes(o.MaxBodyBytes),
	)

	// 运维
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.NewAuthHandler(svc).Mount(&r.RouterGroup)
	return r
}

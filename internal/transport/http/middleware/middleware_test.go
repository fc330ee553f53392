package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenFromHeader(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"abc.def.ghi":    "abc.def.ghi",
		"Bearer abc":     "abc",
		"bearer  abc ":   "abc",
		"  abc  ":        "abc",
		"Bearer":         "Bearer",
		"Basic dXNlcjpw": "Basic dXNlcjpw",
	}
	for in, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
		if in != "" {
			c.Request.Header.Set("Authorization", in)
		}
		assert.Equal(t, want, TokenFromHeader(c), "header %q", in)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	rid := w.Header().Get(HeaderRequestID)
	assert.Len(t, rid, 36)
	assert.Equal(t, rid, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	// 带空格/过长的不沿用
	for _, bad := range []string{"a b", strings.Repeat("x", 65)} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, bad)
		w = serve(r, req)
		assert.NotEqual(t, bad, w.Header().Get(HeaderRequestID))
		assert.Len(t, w.Header().Get(HeaderRequestID), 36)
	}
}

func TestAccessLog_MasksSecrets(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusTeapot, "hi") })

	req := httptest.NewRequest(http.MethodGet, "/x?token=secret&page=2", nil)
	req.Header.Set("Authorization", "secret-header")
	serve(r, req)

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	fields := e.ContextMap()
	assert.Equal(t, "/x", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, 2, fields["size"])
	q := fields["query"].(map[string][]string)
	assert.Equal(t, []string{"****"}, q["token"])
	assert.Equal(t, []string{"2"}, q["page"])
	for _, v := range fields {
		assert.NotEqual(t, "secret-header", v)
	}
}

func TestMaxBodyBytes(t *testing.T) {
	var bindErr error
	r := gin.New()
	r.Use(MaxBodyBytes(4))
	r.POST("/", func(c *gin.Context) {
		var m map[string]any
		bindErr = c.ShouldBindJSON(&m)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"bcdef"}`))
	w := serve(r, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Nil(t, bindErr)

	// 长度未知，读的时候才发现超限
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"bcdef"}`))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)
	var mbe *http.MaxBytesError
	assert.ErrorAs(t, bindErr, &mbe)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusGatewayTimeout, serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil)).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/fast", nil)).Code)
}

func TestTimeout_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(0))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.False(t, ok)
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestConcurrencyLimit(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	r := gin.New()
	r.Use(ConcurrencyLimit(1, 30*time.Millisecond))
	r.GET("/", func(c *gin.Context) {
		close(started)
		<-release
		c.Status(http.StatusNoContent)
	})

	done := make(chan int)
	go func() { done <- serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code }()
	<-started

	// 第二个请求排队超时后 503
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	close(release)
	assert.Equal(t, http.StatusNoContent, <-done)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(Metrics(reg))
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(r, httptest.NewRequest(http.MethodGet, "/users/7", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))

	// 再建一次不会重复注册 panic
	assert.NotPanics(t, func() { Metrics(reg) })

	m := newHTTPMetrics(reg)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/users/:id", http.MethodGet, "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", http.MethodGet, "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

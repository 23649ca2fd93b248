package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"rag-chat-go/internal/config"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Duration),
	}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[key]++
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	f.expires[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func newRateLimitedRouter(counter Counter, cfg config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(counter, cfg))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "pong", "data": nil})
	})
	return r
}

func doGet(r *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitAllowsWithinWindow(t *testing.T) {
	counter := newFakeCounter()
	r := newRateLimitedRouter(counter, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doGet(r).Code)
	}
}

func TestRateLimitRejectsWhenWindowFull(t *testing.T) {
	counter := newFakeCounter()
	r := newRateLimitedRouter(counter, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, doGet(r).Code)
	}
	// 第 4 个请求超出窗口配额
	w := doGet(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "请求过于频繁")
}

func TestRateLimitSetsWindowExpiryOnFirstRequest(t *testing.T) {
	counter := newFakeCounter()
	r := newRateLimitedRouter(counter, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 10})

	doGet(r)
	doGet(r)

	// 仅窗口内首个请求设置过期时间
	require.Len(t, counter.expires, 1)
	for _, d := range counter.expires {
		assert.Equal(t, time.Minute, d)
	}
}

func TestRateLimitFailsOpenOnRedisError(t *testing.T) {
	counter := newFakeCounter()
	counter.err = errors.New("redis unreachable")
	r := newRateLimitedRouter(counter, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1})

	// Redis 不可用时放行，不返回 429
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doGet(r).Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	counter := newFakeCounter()
	r := newRateLimitedRouter(counter, config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doGet(r).Code)
	}
	// 未启用时不触发任何计数
	assert.Empty(t, counter.counts)
}

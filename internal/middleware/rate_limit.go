// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"rag-chat-go/internal/config"
	"rag-chat-go/pkg/log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// Counter 抽象了限流所需的最小计数操作，*redis.Client 直接满足该接口。
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimitMiddleware 基于 Redis 的固定窗口限流，按客户端 IP 计数。
// Redis 不可用时放行请求（fail-open），只记录告警。
func RateLimitMiddleware(rdb Counter, cfg config.RateLimitConfig) gin.HandlerFunc {
	window := time.Minute
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())
		ctx := context.Background()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warnf("[RateLimit] Redis 计数失败, 放行请求: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			// 窗口内首个请求，设置过期时间
			_ = rdb.Expire(ctx, key, window).Err()
		}

		if count > int64(cfg.RequestsPerMinute) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "请求过于频繁，请稍后重试",
				"data":    nil,
			})
			return
		}

		c.Next()
	}
}

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"school-system/backend/pkg/response"
)

// RateLimitStore 分布式限流计数（Redis 滑动窗口）
type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// localIdleTTL 本地限流器闲置多久后回收
const localIdleTTL = 3 * time.Minute

type localClient struct {
	lim  *rate.Limiter
	seen time.Time
}

// localLimiter 进程内按 IP 的令牌桶，Redis 不可用时兜底
type localLimiter struct {
	mu        sync.Mutex
	clients   map[string]*localClient
	r         rate.Limit
	burst     int
	lastSweep time.Time
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	return &localLimiter{
		clients: make(map[string]*localClient),
		r:       rate.Limit(float64(limit) / window.Seconds()),
		burst:   limit,
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > time.Minute {
		for k, cl := range l.clients {
			if now.Sub(cl.seen) > localIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.clients[key]
	if !ok {
		cl = &localClient{lim: rate.NewLimiter(l.r, l.burst)}
		l.clients[key] = cl
	}
	cl.seen = now
	return cl.lim.Allow()
}

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// limit: 窗口内允许的最大请求数
// window: 滑动窗口时长
// store 为 nil 或出错时改用进程内令牌桶（按 IP），不直接放行
func RateLimit(store RateLimitStore, limit int, window time.Duration) gin.HandlerFunc {
	local := newLocalLimiter(limit, window)

	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", c.ClientIP(), c.FullPath())

		if !checkLimit(c.Request.Context(), store, local, key, limit, window) {
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}

func checkLimit(ctx context.Context, store RateLimitStore, local *localLimiter, key string, limit int, window time.Duration) bool {
	if store == nil {
		return local.allow(key)
	}
	allowed, err := store.CheckRateLimit(ctx, key, limit, window)
	if err != nil {
		return local.allow(key)
	}
	return allowed
}

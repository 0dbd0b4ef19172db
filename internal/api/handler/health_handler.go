package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger 可做连通性检查的依赖（数据库、Redis）
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 将普通函数适配为 Pinger
type PingFunc func(ctx context.Context) error

// Ping 实现 Pinger
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler 健康检查
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler 创建 HealthHandler；传 nil 表示该依赖未启用
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check 检查数据库与 Redis 连通性
// GET /health
// 数据库不可用返回 503；Redis 不可用仅标记 degraded（读路径可降级，写路径会失败关闭）
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := probe(ctx, h.db)
	redisStatus := probe(ctx, h.cache)

	status, code := "ok", http.StatusOK
	switch {
	case dbStatus != "ok":
		status, code = "down", http.StatusServiceUnavailable
	case redisStatus != "ok":
		status = "degraded"
	}

	c.JSON(code, gin.H{
		"status": status,
		"db":     dbStatus,
		"redis":  redisStatus,
	})
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "ok"
}

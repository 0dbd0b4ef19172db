// Package lock 基于 "set-if-absent + TTL" 的预约互斥锁
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockUnavailable 锁存储未配置或不可达
var ErrLockUnavailable = errors.New("锁存储不可用")

// releaseTimeout 释放锁的独立超时，不受请求取消影响
const releaseTimeout = 2 * time.Second

// Store 锁原语，由 pkg/redis.Client 实现
type Store interface {
	SetIfAbsentWithTTL(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// Handle 已获取的锁：键 + 持有者令牌
type Handle struct {
	Key   string
	Token string
}

// Locker 预约锁
type Locker struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewLocker 创建预约锁；store 为 nil 时 Acquire 始终返回 ErrLockUnavailable
func NewLocker(store Store, ttl time.Duration, logger *zap.Logger) *Locker {
	return &Locker{store: store, ttl: ttl, logger: logger}
}

// SlotKey 锁键：lock:session:{sessionId}:slot:{startUTC}
func SlotKey(sessionID string, startUTC time.Time) string {
	return fmt.Sprintf("lock:session:%s:slot:%s", sessionID, startUTC.UTC().Format(time.RFC3339))
}

// Acquire 尝试获取锁，不等待；被占用时 ok=false
func (l *Locker) Acquire(ctx context.Context, key string) (Handle, bool, error) {
	if l == nil || l.store == nil {
		return Handle{}, false, ErrLockUnavailable
	}
	token := uuid.NewString()
	ok, err := l.store.SetIfAbsentWithTTL(ctx, key, token, l.ttl)
	if err != nil {
		return Handle{}, false, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	if !ok {
		return Handle{}, false, nil
	}
	return Handle{Key: key, Token: token}, true, nil
}

// Release 释放锁；锁已过期或已被他人持有时不报错
func (l *Locker) Release(ctx context.Context, h Handle) {
	if l == nil || l.store == nil || h.Key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	released, err := l.store.CompareAndDelete(ctx, h.Key, h.Token)
	if err != nil {
		// 释放失败由 TTL 兜底
		l.logger.Warn("释放预约锁失败", zap.String("key", h.Key), zap.Error(err))
		return
	}
	if !released {
		l.logger.Debug("预约锁已过期或被他人持有", zap.String("key", h.Key))
	}
}

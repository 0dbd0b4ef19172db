// Package cache 时段派生缓存：基础层（老师锚定、未过滤）与派生层（按观看者过滤并换算时区）。
// 只做读穿透与写后失效，不做读-改-写。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"school-system/backend/internal/slot"
)

// Store 带 TTL 的键值存储，由 pkg/redis.Client 实现
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

const (
	basePrefix = "slots:base"
	viewPrefix = "slots:view"
	dateLayout = "2006-01-02"
)

// BaseKey 基础层键：(teacher, session, date, window)
type BaseKey struct {
	TeacherID string
	SessionID string
	Date      time.Time
	Window    slot.Window
}

func (k BaseKey) String() string {
	return fmt.Sprintf("%s:teacher:%s:session:%s:date:%s:window:%s-%s",
		basePrefix, k.TeacherID, k.SessionID, k.Date.Format(dateLayout), k.Window.Start, k.Window.End)
}

// ViewKey 派生层键：(session, viewer, date, window, tz)
type ViewKey struct {
	SessionID string
	ViewerID  string
	Date      time.Time
	Window    slot.Window
	TimeZone  string
}

func (k ViewKey) String() string {
	return fmt.Sprintf("%s:session:%s:viewer:%s:date:%s:window:%s-%s:tz:%s",
		viewPrefix, k.SessionID, k.ViewerID, k.Date.Format(dateLayout), k.Window.Start, k.Window.End, k.TimeZone)
}

// InvalidationPatterns 某课程组预约集合变化后需要删除的键模式
func InvalidationPatterns(teacherID, sessionID string) []string {
	return []string{
		fmt.Sprintf("%s:teacher:%s:session:%s:*", basePrefix, teacherID, sessionID),
		fmt.Sprintf("%s:session:%s:*", viewPrefix, sessionID),
	}
}

// SlotCache 两层时段缓存
// store 为 nil 时所有读取视为未命中，写入与失效为空操作
type SlotCache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewSlotCache 创建时段缓存
func NewSlotCache(store Store, ttl time.Duration, logger *zap.Logger) *SlotCache {
	return &SlotCache{store: store, ttl: ttl, logger: logger}
}

// Enabled 是否有可用的后端存储
func (c *SlotCache) Enabled() bool {
	return c != nil && c.store != nil
}

// ── 基础层 ──

// GetBase 读取未过滤的候选时段
func (c *SlotCache) GetBase(ctx context.Context, key BaseKey) ([]slot.Candidate, bool) {
	var out []slot.Candidate
	if !c.get(ctx, key.String(), &out) {
		return nil, false
	}
	return out, true
}

// PutBase 写入未过滤的候选时段
func (c *SlotCache) PutBase(ctx context.Context, key BaseKey, candidates []slot.Candidate) {
	c.put(ctx, key.String(), candidates)
}

// ── 派生层 ──

// GetView 读取某观看者的已过滤时段
func (c *SlotCache) GetView(ctx context.Context, key ViewKey) ([]slot.View, bool) {
	var out []slot.View
	if !c.get(ctx, key.String(), &out) {
		return nil, false
	}
	return out, true
}

// PutView 写入某观看者的已过滤时段
func (c *SlotCache) PutView(ctx context.Context, key ViewKey, views []slot.View) {
	c.put(ctx, key.String(), views)
}

// ── 失效 ──

// Invalidate 删除课程组相关的两层缓存，返回删除的键数
// 失败只记录日志：缓存不是正确性来源，读路径总会按权威预约列表重新过滤
func (c *SlotCache) Invalidate(ctx context.Context, teacherID, sessionID string) int64 {
	if !c.Enabled() {
		return 0
	}
	var total int64
	for _, pattern := range InvalidationPatterns(teacherID, sessionID) {
		n, err := c.store.DeleteByPattern(ctx, pattern)
		total += n
		if err != nil {
			c.logger.Warn("时段缓存失效失败", zap.String("pattern", pattern), zap.Error(err))
		}
	}
	return total
}

// ── 内部辅助方法 ──

func (c *SlotCache) get(ctx context.Context, key string, out interface{}) bool {
	if !c.Enabled() {
		return false
	}
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("读取时段缓存失败", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.logger.Warn("时段缓存内容损坏", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *SlotCache) put(ctx context.Context, key string, value interface{}) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("序列化时段缓存失败", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, string(raw), c.ttl); err != nil {
		c.logger.Warn("写入时段缓存失败", zap.String("key", key), zap.Error(err))
	}
}

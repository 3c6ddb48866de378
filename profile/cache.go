package profile

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rushteam/shopkit/core"
)

// DefaultRefreshInterval 是画像缓存的整体重建间隔。
const DefaultRefreshInterval = 5 * time.Minute

// Cache 持有全量用户画像与最近一次刷新时间。
//
// 并发模式（double-checked staleness）：
//   - 读方先无锁判断是否过期（lastRefresh 为原子值），快路径直接读
//   - 过期时获取重建锁，拿到锁后再次检查（可能已被其他 goroutine 重建）
//   - 重建整体替换 map，读方看到旧画像或新画像，不会看到半成品
//
// 重建开始于 T 的一次刷新至少反映 T 时刻的数据；重建进行中读方可能
// 读到略旧的数据，这是可接受的。
type Cache struct {
	builder  *Builder
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time // 测试注入

	lastRefresh atomic.Int64 // unix nano，0 表示从未构建

	mu        sync.RWMutex // 保护 profiles 引用
	rebuildMu sync.Mutex   // 串行化重建
	profiles  map[string]*core.UserProfile
}

// NewCache 创建画像缓存。interval<=0 时取 DefaultRefreshInterval。
func NewCache(builder *Builder, interval time.Duration, logger *slog.Logger) *Cache {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		builder:  builder,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Get 返回指定用户的画像；新用户/匿名用户返回 (nil, nil)，
// 调用方经 SearchContext.ProfileOrEmpty 得到零值画像。
func (c *Cache) Get(ctx context.Context, userID string) (*core.UserProfile, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profiles[userID], nil
}

// Snapshot 返回当前的全量画像 map（簇级 boost 聚合用）。
// 返回的 map 不应被修改。
func (c *Cache) Snapshot(ctx context.Context) (map[string]*core.UserProfile, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profiles, nil
}

// ensureFresh 是 double-checked 的过期判断与重建入口。
func (c *Cache) ensureFresh(ctx context.Context) error {
	if !c.stale() {
		return nil
	}

	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	// 拿到锁后二次检查：可能已被并发请求重建
	if !c.stale() {
		return nil
	}

	started := c.now()
	profiles, err := c.builder.Build(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.profiles = profiles
	c.mu.Unlock()
	c.lastRefresh.Store(started.UnixNano())

	c.logger.Debug("user profiles rebuilt", "users", len(profiles))
	return nil
}

func (c *Cache) stale() bool {
	last := c.lastRefresh.Load()
	if last == 0 {
		return true
	}
	return c.now().Sub(time.Unix(0, last)) > c.interval
}

package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rushteam/shopkit/core"
)

// DefaultBoostTTL 是簇级类目 boost 的缓存时长。
const DefaultBoostTTL = time.Hour

// ClusterBoost 按需派生簇级类目权重：聚合同簇所有用户画像的
// CategoryPref 并归一化到和为 1。
//
// 这是独立于画像缓存的第二层缓存：key 是 cluster id 而不是 user id，
// TTL 也独立。本地 map 之外可选挂一个 core.Store（如 Redis），
// 让多实例共享聚合结果。
type ClusterBoost struct {
	Users    core.UserStore
	Profiles *Cache
	Store    core.Store // 可选的共享缓存后端
	TTL      time.Duration
	Logger   *slog.Logger

	mu    sync.Mutex
	local map[int]boostEntry
	now   func() time.Time
}

type boostEntry struct {
	boost     map[string]float64
	expiresAt time.Time
}

// NewClusterBoost 创建簇级 boost 缓存。ttl<=0 时取 DefaultBoostTTL。
func NewClusterBoost(users core.UserStore, profiles *Cache, store core.Store, ttl time.Duration, logger *slog.Logger) *ClusterBoost {
	if ttl <= 0 {
		ttl = DefaultBoostTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClusterBoost{
		Users:    users,
		Profiles: profiles,
		Store:    store,
		TTL:      ttl,
		Logger:   logger,
		local:    make(map[int]boostEntry),
		now:      time.Now,
	}
}

// Get 返回指定簇的类目 boost。未分配簇（ClusterUnassigned）返回空 map。
func (b *ClusterBoost) Get(ctx context.Context, cluster int) (map[string]float64, error) {
	if cluster == core.ClusterUnassigned {
		return map[string]float64{}, nil
	}

	b.mu.Lock()
	if e, ok := b.local[cluster]; ok && b.now().Before(e.expiresAt) {
		b.mu.Unlock()
		return e.boost, nil
	}
	b.mu.Unlock()

	// 共享缓存命中则直接采用
	key := boostKey(cluster)
	if b.Store != nil {
		if data, err := b.Store.Get(ctx, key); err == nil {
			var boost map[string]float64
			if json.Unmarshal(data, &boost) == nil {
				b.remember(cluster, boost)
				return boost, nil
			}
		}
	}

	boost, err := b.compute(ctx, cluster)
	if err != nil {
		return nil, err
	}

	b.remember(cluster, boost)
	if b.Store != nil {
		if data, err := json.Marshal(boost); err == nil {
			if err := b.Store.Set(ctx, key, data, int(b.TTL.Seconds())); err != nil {
				b.Logger.Warn("cluster boost cache write failed", "cluster", cluster, "error", err)
			}
		}
	}
	return boost, nil
}

// compute 聚合同簇用户画像并归一化。
func (b *ClusterBoost) compute(ctx context.Context, cluster int) (map[string]float64, error) {
	users, err := b.Users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	profiles, err := b.Profiles.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile snapshot: %w", err)
	}

	counts := make(map[string]float64)
	total := 0.0
	for _, u := range users {
		if u.Cluster != cluster {
			continue
		}
		prof, ok := profiles[u.ID]
		if !ok {
			continue
		}
		for cat, w := range prof.CategoryPref {
			counts[cat] += w
			total += w
		}
	}

	boost := make(map[string]float64, len(counts))
	if total > 0 {
		for cat, w := range counts {
			boost[cat] = w / total
		}
	}
	return boost, nil
}

func (b *ClusterBoost) remember(cluster int, boost map[string]float64) {
	b.mu.Lock()
	b.local[cluster] = boostEntry{boost: boost, expiresAt: b.now().Add(b.TTL)}
	b.mu.Unlock()
}

func boostKey(cluster int) string {
	return fmt.Sprintf("cluster_boost:%d", cluster)
}

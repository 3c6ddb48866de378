// Package profile 维护用户画像缓存与簇级类目 boost 缓存。
//
// 两层缓存相互独立：
//   - Cache 按刷新间隔整体重建全量画像（无增量更新），双重检查避免热路径锁竞争
//   - ClusterBoost 按 cluster id 为 key 按需聚合派生，带独立 TTL
package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/shopkit/core"
)

// Builder 从交互事件与商品目录构建全量用户画像。
type Builder struct {
	Events  core.EventStore
	Catalog core.CatalogStore

	// Window 限定参与聚合的事件时间窗口，0 表示不限
	Window time.Duration
}

// Build 拉取数据并计算所有用户的画像。
func (b *Builder) Build(ctx context.Context) (map[string]*core.UserProfile, error) {
	filter := core.EventFilter{
		Types: []core.EventType{core.EventClick, core.EventAddToCart},
	}
	if b.Window > 0 {
		filter.Since = time.Now().Add(-b.Window)
	}

	events, err := b.Events.GetEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	products, err := b.Catalog.GetCandidates(ctx, core.CatalogFilter{})
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	index := make(map[int64]*core.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}

	return Compute(events, index), nil
}

// Compute 是画像聚合的纯函数部分：
//   - 事件权重 click=1、add_to_cart=2
//   - CategoryPref 为加权事件数归一化（和为 1）
//   - AvgPrice 为交互商品价格的加权均值
//
// 匿名事件（UserID 为空）与未知商品被跳过。
func Compute(events []*core.Event, products map[int64]*core.Product) map[string]*core.UserProfile {
	type agg struct {
		categoryWeight map[string]float64
		weightedPrice  float64
		totalWeight    float64
	}
	byUser := make(map[string]*agg)

	for _, e := range events {
		if e.UserID == "" || e.ProductID == 0 {
			continue
		}
		w := e.Type.Weight()
		if w == 0 {
			continue
		}
		p, ok := products[e.ProductID]
		if !ok {
			continue
		}

		a := byUser[e.UserID]
		if a == nil {
			a = &agg{categoryWeight: make(map[string]float64)}
			byUser[e.UserID] = a
		}
		a.categoryWeight[p.Category] += w
		a.weightedPrice += p.Price * w
		a.totalWeight += w
	}

	now := time.Now()
	profiles := make(map[string]*core.UserProfile, len(byUser))
	for userID, a := range byUser {
		prof := core.NewUserProfile(userID)
		prof.UpdatedAt = now
		for cat, w := range a.categoryWeight {
			prof.CategoryPref[cat] = w / a.totalWeight
		}
		if a.totalWeight > 0 {
			prof.AvgPrice = a.weightedPrice / a.totalWeight
			prof.HasAvgPrice = true
		}
		profiles[userID] = prof
	}
	return profiles
}

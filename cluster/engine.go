package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/rushteam/shopkit/core"
)

// Engine 是离线聚类任务。由 retrain.Scheduler 周期触发，
// 与读流量并发安全：簇分配经 PersistClusterAssignment 整批覆盖生效，
// 读方看到旧分配或新分配，绝不会看到部分更新。
type Engine struct {
	Catalog core.CatalogStore
	Events  core.EventStore
	Users   core.UserStore
	Logger  *slog.Logger

	// Clusters 是期望簇数，<=0 时取 3；实际簇数不超过用户数
	Clusters int

	// MaxIterations 是 k-means 迭代上限，<=0 时取 100
	MaxIterations int
}

// Run 执行一轮聚类并持久化。幂等：同样的事件数据产出同样的分配。
func (e *Engine) Run(ctx context.Context) (map[string]int, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	events, err := e.Events.GetEvents(ctx, core.EventFilter{
		Types: []core.EventType{core.EventClick},
	})
	if err != nil {
		return nil, fmt.Errorf("load click events: %w", err)
	}

	products, err := e.Catalog.GetCandidates(ctx, core.CatalogFilter{})
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	index := make(map[int64]*core.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}

	userIDs, vectors := buildUserVectors(events, index, categoriesOf(products))
	if len(userIDs) == 0 {
		return map[string]int{}, nil
	}

	k := e.Clusters
	if k <= 0 {
		k = 3
	}
	if len(userIDs) < k {
		k = len(userIDs)
	}

	assignment := make(map[string]int, len(userIDs))
	if len(userIDs) < 2 || k < 2 {
		// 退化情形：不足 2 个可聚类用户时全部归入单一簇
		for _, id := range userIDs {
			assignment[id] = 0
		}
	} else {
		maxIter := e.MaxIterations
		if maxIter <= 0 {
			maxIter = 100
		}
		labels := kmeans(vectors, k, maxIter)
		for i, id := range userIDs {
			assignment[id] = labels[i]
		}
	}

	if err := e.Users.PersistClusterAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("persist cluster assignment: %w", err)
	}

	logger.Info("user clusters updated", "users", len(assignment), "clusters", k)
	return assignment, nil
}

// buildUserVectors 构造每个用户的特征向量：
// 固定类目顺序下的归一化点击分布，末尾拼接平均点击价格。
// 用户顺序按 id 排序，保证 k-means 初始化确定。
func buildUserVectors(events []*core.Event, products map[int64]*core.Product, categories []string) ([]string, [][]float64) {
	catIndex := make(map[string]int, len(categories))
	for i, c := range categories {
		catIndex[c] = i
	}

	type agg struct {
		catClicks  []float64
		priceSum   float64
		clickCount float64
	}
	byUser := make(map[string]*agg)

	for _, e := range events {
		if e.UserID == "" || e.ProductID == 0 {
			continue
		}
		p, ok := products[e.ProductID]
		if !ok {
			continue
		}
		a := byUser[e.UserID]
		if a == nil {
			a = &agg{catClicks: make([]float64, len(categories))}
			byUser[e.UserID] = a
		}
		if idx, ok := catIndex[p.Category]; ok {
			a.catClicks[idx]++
		}
		a.priceSum += p.Price
		a.clickCount++
	}

	userIDs := make([]string, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	vectors := make([][]float64, 0, len(userIDs))
	for _, id := range userIDs {
		a := byUser[id]
		vec := make([]float64, len(categories)+1)
		for i, c := range a.catClicks {
			vec[i] = c / a.clickCount
		}
		vec[len(categories)] = a.priceSum / a.clickCount
		vectors = append(vectors, vec)
	}
	return userIDs, vectors
}

// categoriesOf 返回目录中出现的类目，排序保证向量维度顺序固定。
func categoriesOf(products []*core.Product) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

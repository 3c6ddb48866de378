package recall

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/pipeline"
	"github.com/rushteam/shopkit/pkg/utils"
)

// Popularity 是热门召回源，推荐场景的基础候选来源。
//   - 如果配置了 KeyValueStore 与 Key，优先走有序集合 ZRange（分数即热度）
//   - 否则全量读目录按 Popularity 降序截断
//
// ExcludeIDs 用于剔除用户近期已交互的商品。
// Popularity 同时实现了 Source 和 Node 接口。
type Popularity struct {
	Catalog core.CatalogStore

	// Store 是可选的有序集合后端（例如 Redis zset "popular:products"）
	Store core.KeyValueStore
	Key   string

	// TopK 返回 TopK 个候选，<=0 时取 200
	TopK int

	// ExcludeIDs 剔除指定商品 id
	ExcludeIDs map[int64]bool
}

func (r *Popularity) Name() string        { return "recall.popularity" }
func (r *Popularity) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Popularity) Process(
	ctx context.Context,
	sctx *core.SearchContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, sctx)
}

// Recall 实现 Source 接口。
func (r *Popularity) Recall(
	ctx context.Context,
	_ *core.SearchContext,
) ([]*core.Item, error) {
	topK := r.TopK
	if topK <= 0 {
		topK = 200
	}

	// 有序集合快路径：zset 里只有 id，回表取商品
	if r.Store != nil && r.Key != "" {
		members, err := r.Store.ZRange(ctx, r.Key, 0, int64(topK)-1)
		if err == nil && len(members) > 0 {
			ids := make([]int64, 0, len(members))
			for _, m := range members {
				if id, err := strconv.ParseInt(m, 10, 64); err == nil && !r.ExcludeIDs[id] {
					ids = append(ids, id)
				}
			}
			products, err := r.Catalog.GetProductsByIDs(ctx, ids)
			if err == nil && len(products) > 0 {
				return r.wrap(products, topK), nil
			}
		}
	}

	products, err := r.Catalog.GetCandidates(ctx, core.CatalogFilter{})
	if err != nil {
		return nil, err
	}
	filtered := make([]*core.Product, 0, len(products))
	for _, p := range products {
		if r.ExcludeIDs[p.ID] {
			continue
		}
		filtered = append(filtered, p)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Popularity > filtered[j].Popularity
	})
	return r.wrap(filtered, topK), nil
}

func (r *Popularity) wrap(products []*core.Product, topK int) []*core.Item {
	if len(products) > topK {
		products = products[:topK]
	}
	out := make([]*core.Item, 0, len(products))
	for _, p := range products {
		it := core.NewItem(p)
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out
}

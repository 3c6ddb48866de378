package rank

import (
	"context"
	"sort"
	"time"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/feature"
	"github.com/rushteam/shopkit/model"
	"github.com/rushteam/shopkit/pipeline"
	"github.com/rushteam/shopkit/pkg/utils"
)

// DefaultClusterWeight 是簇级类目权重在综合类目分中的系数。
// 个体画像是一手信号，簇画像是二手信号，权重减半避免喧宾夺主。
const DefaultClusterWeight = 0.5

// ModelNode 是个性化排序 Node（A 组主链路）：
//  1. 为每个 item 构建特征向量（热度/评分/新鲜度/类目偏好/价格亲和）
//  2. 交给 model.Adapter 打分（模型缺失或异常时退回热度特征）
//  3. 叠加近期交互加分（RecentBoost）
//  4. 按分数稳定降序排序
//
// 写入 labels：rank_model。
type ModelNode struct {
	Adapter *model.Adapter

	// ClusterWeight 簇级类目权重系数，nil 时取 DefaultClusterWeight。
	// 显式 0 表示关闭簇信号。
	ClusterWeight *float64

	// Now 便于测试注入时钟，nil 时取 time.Now
	Now func() time.Time
}

func (n *ModelNode) Name() string        { return "rank.model" }
func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	_ context.Context,
	sctx *core.SearchContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	now := time.Now()
	if n.Now != nil {
		now = n.Now()
	}
	clusterWeight := DefaultClusterWeight
	if n.ClusterWeight != nil {
		clusterWeight = *n.ClusterWeight
	}
	profile := sctx.ProfileOrEmpty()

	for _, it := range items {
		if it == nil || it.Product == nil {
			continue
		}
		p := it.Product

		// 综合类目分 = 个体画像偏好 + 系数 * 簇级偏好
		categoryScore := profile.CategoryScore(p.Category)
		if boost, ok := sctx.ClusterBoost[p.Category]; ok {
			categoryScore += clusterWeight * boost
		}

		it.Features = feature.Build(
			p.Popularity,
			p.Rating,
			feature.Freshness(p.CreatedAt, now),
			categoryScore,
			feature.PriceAffinity(profile.AvgPrice, profile.HasAvgPrice, p.Price),
		)

		score := it.Features[feature.IdxPopularity]
		modelName := "heuristic"
		if n.Adapter != nil {
			score = n.Adapter.Score(it.Features)
			modelName = n.Adapter.ModelName()
		}
		if boost, ok := sctx.RecentBoost[it.ID]; ok {
			score += boost
		}
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: modelName, Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

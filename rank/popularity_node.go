package rank

import (
	"context"
	"sort"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/pipeline"
	"github.com/rushteam/shopkit/pkg/utils"
)

// PopularityNode 是对照组（B 组）排序 Node：只按商品热度降序，
// 不读画像、不读簇信号、不做近期加分。A/B 实验的 baseline。
//
// 写入 labels：rank_model=popularity。
type PopularityNode struct{}

func (n *PopularityNode) Name() string        { return "rank.popularity" }
func (n *PopularityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *PopularityNode) Process(
	_ context.Context,
	_ *core.SearchContext,
	items []*core.Item,
) ([]*core.Item, error) {
	for _, it := range items {
		if it == nil || it.Product == nil {
			continue
		}
		it.Score = float64(it.Product.Popularity)
		it.PutLabel("rank_model", utils.Label{Value: "popularity", Source: "rank"})
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

package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/intent"
	"github.com/rushteam/shopkit/pipeline"
	"github.com/rushteam/shopkit/pkg/utils"
)

// SortHint 按意图解析出的排序提示覆盖模型排序：
//   - price_asc  价格升序（"cheap"、"budget"）
//   - price_desc 价格降序（"premium"、"high end"）
//   - rating     评分降序（"best"、"top rated"）
//
// 没有提示时原样透传，模型分数的顺序保持不变。
// 写入 labels：sort_hint。
type SortHint struct{}

func (n *SortHint) Name() string        { return "rerank.sort_hint" }
func (n *SortHint) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *SortHint) Process(
	_ context.Context,
	sctx *core.SearchContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if sctx == nil || sctx.SortHint == "" || len(items) < 2 {
		return items, nil
	}

	var less func(a, b *core.Item) bool
	switch sctx.SortHint {
	case intent.SortPriceAsc:
		less = func(a, b *core.Item) bool { return a.Product.Price < b.Product.Price }
	case intent.SortPriceDesc:
		less = func(a, b *core.Item) bool { return a.Product.Price > b.Product.Price }
	case intent.SortRating:
		less = func(a, b *core.Item) bool { return a.Product.Rating > b.Product.Rating }
	default:
		return items, nil
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil || items[i].Product == nil {
			return false
		}
		if items[j] == nil || items[j].Product == nil {
			return true
		}
		return less(items[i], items[j])
	})

	for _, it := range items {
		if it == nil {
			continue
		}
		it.PutLabel("sort_hint", utils.Label{Value: sctx.SortHint, Source: "rerank"})
	}
	return items, nil
}

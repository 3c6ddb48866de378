package rerank

import (
	"context"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/pipeline"
)

// Diversity 是推荐场景的多样性 ReRank：限制每个类目最多出现 MaxPerCategory 次，
// 在保持分数顺序的前提下截取前 Limit 个。
//
// 两趟遍历：第一趟按类目配额挑选；如果配额导致结果不足 Limit，
// 第二趟按原顺序回填被跳过的 item（结果数量优先于多样性约束）。
type Diversity struct {
	// MaxPerCategory 每个类目的最大数量，<=0 时取 3
	MaxPerCategory int

	// Limit 结果上限，<=0 时取 10
	Limit int
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) Process(
	_ context.Context,
	_ *core.SearchContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	maxPerCategory := n.MaxPerCategory
	if maxPerCategory <= 0 {
		maxPerCategory = 3
	}
	limit := n.Limit
	if limit <= 0 {
		limit = 10
	}

	counts := make(map[string]int, 16)
	out := make([]*core.Item, 0, limit)
	skipped := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}
		if len(out) >= limit {
			break
		}
		cate := ""
		if it.Product != nil {
			cate = it.Product.Category
		}
		if cate != "" && counts[cate] >= maxPerCategory {
			skipped = append(skipped, it)
			continue
		}
		counts[cate]++
		out = append(out, it)
	}

	// 配额吃紧时回填，保证结果量
	for _, it := range skipped {
		if len(out) >= limit {
			break
		}
		out = append(out, it)
	}

	return out, nil
}

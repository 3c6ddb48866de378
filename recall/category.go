package recall

import (
	"context"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/pipeline"
	"github.com/rushteam/shopkit/pkg/utils"
)

// Category 是类目召回源：当意图解析出类目提示、而模糊召回的候选不足时，
// 由服务层把它与模糊召回做并集（按商品 id 去重）。
// Category 同时实现了 Source 和 Node 接口。
type Category struct {
	Catalog core.CatalogStore
}

func (r *Category) Name() string        { return "recall.category" }
func (r *Category) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Category) Process(
	ctx context.Context,
	sctx *core.SearchContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, sctx)
}

// Recall 实现 Source 接口。上下文没有类目提示时返回空。
func (r *Category) Recall(
	ctx context.Context,
	sctx *core.SearchContext,
) ([]*core.Item, error) {
	if sctx.Category == "" {
		return nil, nil
	}
	products, err := r.Catalog.GetCandidates(ctx, core.CatalogFilter{Category: sctx.Category})
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(products))
	for _, p := range products {
		it := core.NewItem(p)
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

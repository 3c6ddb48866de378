package filter

import (
	"context"

	"github.com/rushteam/shopkit/core"
)

// PriceRange 按意图解析出的价格区间过滤：
// "under $50" / "over 100" / "between 100 and 500"。
// 区间边界含等号（$50 的商品能通过 "under 50"）。
// 没有价格约束时不过滤任何商品。
type PriceRange struct{}

func (f *PriceRange) Name() string { return "filter.price_range" }

func (f *PriceRange) ShouldFilter(
	_ context.Context,
	sctx *core.SearchContext,
	item *core.Item,
) (bool, error) {
	if item.Product == nil {
		return false, nil
	}
	price := item.Product.Price
	if sctx.MinPrice != nil && price < *sctx.MinPrice {
		return true, nil
	}
	if sctx.MaxPrice != nil && price > *sctx.MaxPrice {
		return true, nil
	}
	return false, nil
}

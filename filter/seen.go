package filter

import (
	"context"

	"github.com/rushteam/shopkit/core"
)

// Seen 过滤指定的商品 id（推荐场景里剔除用户近期已交互的商品）。
type Seen struct {
	IDs map[int64]bool
}

func (f *Seen) Name() string { return "filter.seen" }

func (f *Seen) ShouldFilter(
	_ context.Context,
	_ *core.SearchContext,
	item *core.Item,
) (bool, error) {
	return f.IDs[item.ID], nil
}

package filter

import (
	"context"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/pkg/dsl"
)

// Rule 是基于 CEL 表达式的规则过滤器，表达式返回 true 的商品被过滤。
// 用于运营侧动态下发的黑名单规则，例如：
//
//	NewRule(`product.rating < 2.0`)
//	NewRule(`sctx.scene == "recommend" && product.price > 5000.0`)
type Rule struct {
	prg *dsl.Program
}

// NewRule 编译表达式并创建过滤器。表达式非法时返回错误，
// 在装配阶段暴露而不是在请求路径上反复失败。
// 空表达式视为"不过滤任何商品"。
func NewRule(expr string) (*Rule, error) {
	if expr == "" {
		return &Rule{}, nil
	}
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Rule{prg: prg}, nil
}

func (f *Rule) Name() string { return "filter.rule" }

func (f *Rule) ShouldFilter(
	_ context.Context,
	sctx *core.SearchContext,
	item *core.Item,
) (bool, error) {
	if f.prg == nil {
		return false, nil
	}
	return f.prg.Eval(item, sctx)
}

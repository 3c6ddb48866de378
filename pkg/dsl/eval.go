package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shopkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("product", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("sctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Program 是编译后的规则表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可以对任意多个 item 并发求值。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "recall.fuzzy" / product.category == "Gaming"
//   - 数值：item.score > 0.7 / product.price >= 100.0
//   - 逻辑：product.category == "Audio" && product.rating > 4.0
//   - 包含：label.recall_source.contains("fuzzy")
//
// 示例：
//   - `product.rating < 2.0` → 过滤低评分商品
//   - `sctx.scene == "recommend" && product.price > 5000.0` → 推荐位不出高价商品
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译 DSL 表达式。空表达式合法，求值恒为 true。
func Compile(expr string) (*Program, error) {
	p := &Program{expr: expr}
	if expr == "" {
		return p, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	p.prg = prg
	return p, nil
}

// Expr 返回原始表达式文本。
func (p *Program) Expr() string { return p.expr }

// Eval 对单个 item 求值，返回布尔结果。
// 表达式里访问不存在的 key 会报错，用 label.key != null 检查存在性。
func (p *Program) Eval(item *core.Item, sctx *core.SearchContext) (bool, error) {
	if p.prg == nil {
		return true, nil
	}

	out, _, err := p.prg.Eval(buildInput(item, sctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, sctx *core.SearchContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		// label.recall_source 直接取 value
		labels[k] = v.Value
	}

	itemMap := map[string]any{
		"id":       item.ID,
		"score":    item.Score,
		"features": item.Features,
	}

	productMap := map[string]any{}
	if item.Product != nil {
		p := item.Product
		productMap = map[string]any{
			"id":           p.ID,
			"title":        p.Title,
			"category":     p.Category,
			"price":        p.Price,
			"rating":       p.Rating,
			"review_count": p.ReviewCount,
			"popularity":   p.Popularity,
		}
	}

	sctxMap := map[string]any{}
	if sctx != nil {
		sctxMap = map[string]any{
			"user_id":  sctx.UserID,
			"query":    sctx.Query,
			"scene":    sctx.Scene,
			"category": sctx.Category,
			"group":    sctx.Group,
			"cluster":  sctx.Cluster,
			"params":   sctx.Params,
		}
	}

	return map[string]any{
		"item":    itemMap,
		"product": productMap,
		"label":   labels,
		"sctx":    sctxMap,
	}
}

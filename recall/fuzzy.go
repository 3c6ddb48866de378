package recall

import (
	"context"
	"strings"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/pipeline"
	"github.com/rushteam/shopkit/pkg/utils"
)

// DefaultFuzzyThreshold 是 token 相似度阈值。
// 0.7 在"漏掉相关结果"与"引入无关结果"之间取得平衡：
// 常见拼写错误能命中，完全不相关的词被挡掉。
const DefaultFuzzyThreshold = 0.7

// Fuzzy 是文本模糊召回源：对 title+description+category 做
// 精确子串匹配或逐 token 相似度匹配（utils.Ratio 超过阈值即命中）。
// Fuzzy 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Fuzzy struct {
	Catalog core.CatalogStore

	// Threshold 是 token 相似度阈值，<=0 时取 DefaultFuzzyThreshold
	Threshold float64
}

func (r *Fuzzy) Name() string        { return "recall.fuzzy" }
func (r *Fuzzy) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Fuzzy) Process(
	ctx context.Context,
	sctx *core.SearchContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, sctx)
}

// Recall 实现 Source 接口。检索文本取 CleanQuery，为空时退回原始 Query。
// 空候选集是合法结果而不是错误。
func (r *Fuzzy) Recall(
	ctx context.Context,
	sctx *core.SearchContext,
) ([]*core.Item, error) {
	query := sctx.CleanQuery
	if query == "" {
		query = sctx.Query
	}
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, nil
	}

	products, err := r.Catalog.GetCandidates(ctx, core.CatalogFilter{})
	if err != nil {
		return nil, err
	}

	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}

	out := make([]*core.Item, 0)
	for _, p := range products {
		text := strings.ToLower(p.Title + " " + p.Description + " " + p.Category)
		if fuzzyMatch(text, words, threshold) {
			it := core.NewItem(p)
			it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
			out = append(out, it)
		}
	}
	return out, nil
}

// fuzzyMatch 判断任一查询词命中文本：精确子串，或与任一 token 的
// 相似度达到阈值。
func fuzzyMatch(text string, words []string, threshold float64) bool {
	tokens := strings.Fields(text)
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
		for _, token := range tokens {
			if utils.Ratio(w, token) >= threshold {
				return true
			}
		}
	}
	return false
}

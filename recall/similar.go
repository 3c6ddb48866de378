package recall

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/pipeline"
	"github.com/rushteam/shopkit/pkg/utils"
)

// Similar 是基于内容的相似召回源（Content-Based Recommendation）。
//
// 核心思想："用户近期交互过的商品长什么样，就推荐长得像的商品"：
// 对 title+description 建 TF-IDF 向量，用户向量取近期交互商品向量的均值，
// 按余弦相似度取 TopK，剔除已交互商品。
//
// 近期商品集合来自 SearchContext.RecentBoost（服务层已解析），
// 信号缺失时返回空候选，由热门召回兜底。
type Similar struct {
	Catalog core.CatalogStore

	// TopK 返回 TopK 个候选，<=0 时取 50
	TopK int
}

func (r *Similar) Name() string        { return "recall.similar" }
func (r *Similar) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Similar) Process(
	ctx context.Context,
	sctx *core.SearchContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, sctx)
}

// Recall 实现 Source 接口。
func (r *Similar) Recall(
	ctx context.Context,
	sctx *core.SearchContext,
) ([]*core.Item, error) {
	if len(sctx.RecentBoost) == 0 {
		return nil, nil
	}

	products, err := r.Catalog.GetCandidates(ctx, core.CatalogFilter{})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}

	vectors := tfidfVectors(products)

	// 用户向量 = 近期交互商品向量的均值
	userVec := make(map[string]float64)
	seen := make(map[int64]bool, len(sctx.RecentBoost))
	recentCount := 0.0
	for i, p := range products {
		if _, ok := sctx.RecentBoost[p.ID]; !ok {
			continue
		}
		seen[p.ID] = true
		recentCount++
		for term, w := range vectors[i] {
			userVec[term] += w
		}
	}
	if recentCount == 0 {
		return nil, nil
	}
	for term := range userVec {
		userVec[term] /= recentCount
	}

	type scored struct {
		product *core.Product
		score   float64
	}
	candidates := make([]scored, 0, len(products))
	for i, p := range products {
		if seen[p.ID] {
			continue
		}
		if sim := cosine(userVec, vectors[i]); sim > 0 {
			candidates = append(candidates, scored{product: p, score: sim})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	topK := r.TopK
	if topK <= 0 {
		topK = 50
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		it := core.NewItem(c.product)
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// tfidfVectors 为每个商品的 title+description 构建 L2 归一化的 TF-IDF 向量。
func tfidfVectors(products []*core.Product) []map[string]float64 {
	n := float64(len(products))
	df := make(map[string]float64)
	termCounts := make([]map[string]float64, len(products))

	for i, p := range products {
		counts := make(map[string]float64)
		for _, term := range strings.Fields(strings.ToLower(p.Title + " " + p.Description)) {
			counts[term]++
		}
		termCounts[i] = counts
		for term := range counts {
			df[term]++
		}
	}

	vectors := make([]map[string]float64, len(products))
	for i, counts := range termCounts {
		vec := make(map[string]float64, len(counts))
		norm := 0.0
		for term, tf := range counts {
			w := tf * (math.Log(n/(1+df[term])) + 1)
			vec[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range vec {
				vec[term] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors
}

// cosine 计算两个稀疏向量的余弦相似度。
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	dot := 0.0
	for term, av := range a {
		if bv, ok := b[term]; ok {
			dot += av * bv
		}
	}
	if dot == 0 {
		return 0
	}
	na, nb := 0.0, 0.0
	for _, v := range a {
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

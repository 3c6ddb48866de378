package model

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/feature"
	"github.com/rushteam/shopkit/profile"
)

// Trainer 在进程内拟合排序模型：对历史 (特征, 相关性标签) 按用户分组训练。
// 标签：add_to_cart=2、click=1、未交互=0（负样本按热度确定性采样，保证
// 重训可复现）。产出带版本的 artifact 并写入 ModelStore。
type Trainer struct {
	Catalog core.CatalogStore
	Events  core.EventStore
	Models  core.ModelStore
	Logger  *slog.Logger

	// Epochs 是梯度下降轮数，<=0 时取 200
	Epochs int

	// LearnRate 是学习率，<=0 时取 0.5
	LearnRate float64

	// NegativesPerUser 是每个用户的负样本数，<=0 时取 3
	NegativesPerUser int
}

// Fit 构建训练集、拟合逻辑回归并持久化 artifact。
// 数据不足（无交互事件或目录为空）返回错误，调用方按重训失败处理。
func (t *Trainer) Fit(ctx context.Context) (*LRModel, error) {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	events, err := t.Events.GetEvents(ctx, core.EventFilter{
		Types: []core.EventType{core.EventClick, core.EventAddToCart},
	})
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no interaction events to train on")
	}

	products, err := t.Catalog.GetCandidates(ctx, core.CatalogFilter{})
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	index := make(map[int64]*core.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	profiles := profile.Compute(events, index)

	X, y := t.buildTrainingData(events, products, index, profiles)
	if len(X) == 0 {
		return nil, fmt.Errorf("no usable training samples")
	}

	m := fitLogistic(X, y, t.epochs(), t.learnRate())
	m.TrainedAt = time.Now()

	data, err := m.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	if err := t.Models.SaveModel(ctx, data); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	logger.Info("ranking model fitted", "samples", len(X), "version", m.Version)
	return m, nil
}

// buildTrainingData 按用户分组生成样本：交互过的商品取事件权重为标签，
// 未交互的热门商品作为确定性负样本（标签 0）。
func (t *Trainer) buildTrainingData(
	events []*core.Event,
	products []*core.Product,
	index map[int64]*core.Product,
	profiles map[string]*core.UserProfile,
) ([][]float64, []float64) {
	// 负样本候选：按热度降序，平热度按 id 保证顺序稳定
	byPopularity := make([]*core.Product, len(products))
	copy(byPopularity, products)
	sort.Slice(byPopularity, func(i, j int) bool {
		if byPopularity[i].Popularity != byPopularity[j].Popularity {
			return byPopularity[i].Popularity > byPopularity[j].Popularity
		}
		return byPopularity[i].ID < byPopularity[j].ID
	})

	perUser := make(map[string][]*core.Event)
	userOrder := make([]string, 0)
	for _, e := range events {
		if e.ProductID == 0 {
			continue
		}
		if _, ok := perUser[e.UserID]; !ok {
			userOrder = append(userOrder, e.UserID)
		}
		perUser[e.UserID] = append(perUser[e.UserID], e)
	}
	sort.Strings(userOrder)

	var X [][]float64
	var y []float64

	for _, userID := range userOrder {
		prof := profiles[userID]
		touched := make(map[int64]bool)

		for _, e := range perUser[userID] {
			p, ok := index[e.ProductID]
			if !ok {
				continue
			}
			touched[p.ID] = true
			X = append(X, t.featuresFor(prof, p))
			// 归一化到 [0,1]：add_to_cart=1.0、click=0.5
			y = append(y, e.Type.Weight()/2)
		}

		negatives := 0
		for _, p := range byPopularity {
			if negatives >= t.negativesPerUser() {
				break
			}
			if touched[p.ID] {
				continue
			}
			X = append(X, t.featuresFor(prof, p))
			y = append(y, 0)
			negatives++
		}
	}
	return X, y
}

func (t *Trainer) featuresFor(prof *core.UserProfile, p *core.Product) []float64 {
	var avgPrice float64
	var hasAvg bool
	if prof != nil {
		avgPrice, hasAvg = prof.AvgPrice, prof.HasAvgPrice
	}
	return feature.Build(
		p.Popularity,
		p.Rating,
		feature.Freshness(p.CreatedAt, time.Now()),
		prof.CategoryScore(p.Category),
		feature.PriceAffinity(avgPrice, hasAvg, p.Price),
	)
}

// fitLogistic 用全量批梯度下降拟合交叉熵损失（软标签）。
// 样本量与维度都很小，不需要更复杂的优化器。
func fitLogistic(X [][]float64, y []float64, epochs int, lr float64) *LRModel {
	weights := make([]float64, feature.Size)
	bias := 0.0
	n := float64(len(X))

	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([]float64, feature.Size)
		gradB := 0.0
		for i, x := range X {
			z := bias
			for j, v := range x {
				z += weights[j] * v
			}
			p := 1 / (1 + math.Exp(-z))
			diff := p - y[i]
			gradB += diff
			for j, v := range x {
				gradW[j] += diff * v
			}
		}
		bias -= lr * gradB / n
		for j := range weights {
			weights[j] -= lr * gradW[j] / n
		}
	}

	return &LRModel{Bias: bias, Weights: weights, Version: 1}
}

func (t *Trainer) epochs() int {
	if t.Epochs > 0 {
		return t.Epochs
	}
	return 200
}

func (t *Trainer) learnRate() float64 {
	if t.LearnRate > 0 {
		return t.LearnRate
	}
	return 0.5
}

func (t *Trainer) negativesPerUser() int {
	if t.NegativesPerUser > 0 {
		return t.NegativesPerUser
	}
	return 3
}

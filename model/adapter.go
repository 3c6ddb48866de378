package model

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/feature"
)

// Adapter 把排序模型包装为永不失败的打分函数。
//
// 行为契约：
//   - 构造时尝试从 ModelStore 加载 artifact；缺失或解码失败则进入兜底模式，
//     直到 Reload 成功为止（冷启动可用）
//   - Score 为单次调用包裹失败边界：模型报错、输出形状异常（NaN/Inf）都
//     立刻兜底为 features[0]（归一化热度）——降级的分数，而不是失败的请求
//   - Reload 原子替换模型引用，并发打分读到旧模型或新模型，不会读到中间态
type Adapter struct {
	store  core.ModelStore
	logger *slog.Logger

	mu    sync.RWMutex
	model RankModel // nil 表示兜底模式
}

// NewAdapter 创建适配器并尝试加载当前模型。
// 加载失败不是错误：记录日志后以兜底模式运行。
func NewAdapter(ctx context.Context, store core.ModelStore, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{store: store, logger: logger}
	if err := a.Reload(ctx); err != nil {
		logger.Warn("ranking model unavailable, serving heuristic fallback", "error", err)
	}
	return a
}

// Reload 重新加载模型 artifact（重训完成后调用）。
func (a *Adapter) Reload(ctx context.Context) error {
	data, err := a.store.LoadModel(ctx)
	if err != nil {
		return err
	}
	m, err := DecodeLRModel(data)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.model = m
	a.mu.Unlock()
	return nil
}

// ModelName 返回当前模型名；兜底模式返回 "heuristic"。
func (a *Adapter) ModelName() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.model == nil {
		return "heuristic"
	}
	return a.model.Name()
}

// Loaded 报告当前是否有可用模型（false 表示兜底模式）。
func (a *Adapter) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.model != nil
}

// Score 对特征向量打分。任何模型层面的问题都兜底为热度特征，不向上传播。
func (a *Adapter) Score(features []float64) float64 {
	if len(features) == 0 {
		return 0
	}

	a.mu.RLock()
	m := a.model
	a.mu.RUnlock()

	if m == nil {
		return features[feature.IdxPopularity]
	}

	score, err := m.Predict(features)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		a.logger.Warn("model predict degraded to heuristic", "model", m.Name(), "error", err)
		return features[feature.IdxPopularity]
	}
	return score
}

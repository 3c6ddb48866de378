package model

// RankModel 是排序阶段的最小抽象：输入特征向量，输出一个可比较的分数。
// 具体实现可以是本地模型（逻辑回归）或任何可换入的打分函数。
type RankModel interface {
	Name() string
	Predict(features []float64) (float64, error)
}

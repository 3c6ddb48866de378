// Package feature 把 (商品, 用户上下文) 映射为定长数值特征向量，
// 供排序模型与启发式兜底共用。
package feature

import (
	"math"
	"time"
)

// 特征向量的固定布局。下标 0 的热度特征同时是模型失效时的启发式兜底分。
const (
	IdxPopularity    = 0
	IdxRating        = 1
	IdxFreshness     = 2
	IdxCategoryScore = 3
	IdxPriceAffinity = 4

	// Size 是特征向量长度
	Size = 5
)

const (
	// MaxPopularity 是热度归一化上限，超出按上限截断
	MaxPopularity = 10000

	// DecayDays 是 freshness 线性衰减到 0 的时间跨度（天）
	DecayDays = 365
)

// Build 构建 5 维特征向量：
//
//	[clamp(popularity,0,MaxPopularity)/MaxPopularity,
//	 clamp(rating,0,5)/5,
//	 freshness,
//	 categoryScore,
//	 priceAffinity]
//
// freshness 由 Freshness 计算，调用方负责传入时钟。
// categoryScore 可以超过 1（画像偏好 + 簇级 boost 叠加）；priceAffinity 取值 [0,1]。
func Build(popularity int64, rating, freshness, categoryScore, priceAffinity float64) []float64 {
	return []float64{
		clamp(float64(popularity), 0, MaxPopularity) / MaxPopularity,
		clamp(rating, 0, 5) / 5,
		freshness,
		categoryScore,
		priceAffinity,
	}
}

// Freshness 计算新鲜度：now 当天为 1，线性衰减，超过 DecayDays 恒为 0（不为负）。
func Freshness(createdAt, now time.Time) float64 {
	days := now.Sub(createdAt).Hours() / 24
	return clamp(1-days/DecayDays, 0, 1)
}

// PriceAffinity 计算价格亲和度：价格越接近用户加权均价得分越高。
//
//	clamp(1 - |price - avgPrice| / max(|avgPrice|, 1), 0, 1)
//
// max(...,1) 的分母保护避免均价接近 0 时的除法爆炸。
// hasAvgPrice 为 false（空画像）时恒为 0。
func PriceAffinity(avgPrice float64, hasAvgPrice bool, price float64) float64 {
	if !hasAvgPrice {
		return 0
	}
	denom := math.Max(math.Abs(avgPrice), 1)
	return clamp(1-math.Abs(price-avgPrice)/denom, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

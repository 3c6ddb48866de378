package core

import "time"

// UserProfile 是从历史交互聚合出的用户画像（派生数据，只缓存、不持久化）。
//
// 构建规则（profile.Build）：
//   - 事件权重：click=1、add_to_cart=2
//   - CategoryPref 按加权事件数统计后归一化，和为 1
//   - AvgPrice 为交互商品价格的加权均值
//
// 零值即"空画像"：新用户 / 匿名用户的所有偏好为 0，下游特征构建
// 不需要判空分支（HasAvgPrice 区分"均价为 0"与"没有均价"）。
type UserProfile struct {
	UserID       string
	CategoryPref map[string]float64 // category -> 归一化权重
	AvgPrice     float64
	HasAvgPrice  bool
	UpdatedAt    time.Time
}

// NewUserProfile 创建一个空画像。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:       userID,
		CategoryPref: make(map[string]float64),
	}
}

// CategoryScore 返回用户对某类目的偏好权重；空画像返回 0。
func (p *UserProfile) CategoryScore(category string) float64 {
	if p == nil || p.CategoryPref == nil {
		return 0
	}
	return p.CategoryPref[category]
}

package core

import "github.com/rushteam/shopkit/pkg/utils"

// ClusterUnassigned 表示用户尚未被聚类引擎分配到任何行为簇。
const ClusterUnassigned = -1

// SearchContext 承载一次搜索/推荐请求的用户与意图信息，贯穿整个 Pipeline 透传。
//
// 个性化信号（Profile / ClusterBoost / RecentBoost）由 search.Service 在
// Pipeline 执行前解析填充；任一信号加载失败时保持零值，排序继续进行，
// 搜索永不因个性化失败而报错。
type SearchContext struct {
	UserID string
	Query  string // 原始 query
	Scene  string // search / category / recommend

	// 意图解析结果（intent.Parse 的产出摘录）
	CleanQuery string   // 剥离修饰词后的检索文本
	Category   string   // 类目提示，可为空
	SortHint   string   // "" / price_asc / price_desc / rating
	MinPrice   *float64 // 显式价格下界
	MaxPrice   *float64 // 显式价格上界

	// 用户上下文
	Group   string // 实验组，未知用户默认 "A"
	Cluster int    // 行为簇 id，ClusterUnassigned 表示未分配

	// 个性化信号（缺失时为零值）
	Profile      *UserProfile
	ClusterBoost map[string]float64 // category -> 簇级类目权重
	RecentBoost  map[int64]float64  // product_id -> 近期交互加分

	Limit int

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（device_type、time_of_day 等）
	Params map[string]any
}

// NewSearchContext 创建一个带默认值的请求上下文。
func NewSearchContext(userID, query string) *SearchContext {
	return &SearchContext{
		UserID:  userID,
		Query:   query,
		Group:   "A",
		Cluster: ClusterUnassigned,
	}
}

// ProfileOrEmpty 返回用户画像；信号缺失时返回空画像，调用方不需要判空。
func (sctx *SearchContext) ProfileOrEmpty() *UserProfile {
	if sctx.Profile != nil {
		return sctx.Profile
	}
	return NewUserProfile(sctx.UserID)
}

// PutLabel 写入请求级 Label。
func (sctx *SearchContext) PutLabel(key string, lbl utils.Label) {
	if sctx.Labels == nil {
		sctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := sctx.Labels[key]; ok {
		sctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	sctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (sctx *SearchContext) GetLabel(key string) (utils.Label, bool) {
	if sctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := sctx.Labels[key]
	return lbl, ok
}

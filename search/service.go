// Package search 是引擎的对外门面：搜索、类目浏览、个性化推荐、事件上报。
//
// 职责划分：
//   - 校验输入并解析意图
//   - 解析用户上下文（实验组 / 行为簇 / 画像 / 簇级 boost / 近期加分），
//     任一信号缺失都降级为零值，请求继续
//   - 组装并执行 Pipeline（召回 → 过滤 → 排序 → 重排）
//   - 结果缓存与事件旁路（热度递增、重训计数）
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/filter"
	"github.com/rushteam/shopkit/intent"
	"github.com/rushteam/shopkit/model"
	"github.com/rushteam/shopkit/pipeline"
	"github.com/rushteam/shopkit/profile"
	"github.com/rushteam/shopkit/rank"
	"github.com/rushteam/shopkit/recall"
	"github.com/rushteam/shopkit/rerank"
	"github.com/rushteam/shopkit/retrain"
)

// 默认链路参数。
const (
	DefaultLimit              = 10
	DefaultFallbackMinResults = 5
	DefaultResultCacheTTL     = 5 * time.Minute
)

// Options 是 Service 的可调参数，零值字段取默认值。
type Options struct {
	FuzzyThreshold     float64
	FallbackMinResults int
	Limit              int
	ResultCacheTTL     time.Duration

	// ClusterWeight nil 时取 rank.DefaultClusterWeight，显式 0 关闭簇信号
	ClusterWeight  *float64
	RecencyBase    float64
	RecencyDecay   float64
	RecencyTopK    int
	MaxPerCategory int

	// Rules 是 CEL 规则过滤表达式，命中即剔除
	Rules []string
}

func (o *Options) withDefaults() {
	if o.FallbackMinResults <= 0 {
		o.FallbackMinResults = DefaultFallbackMinResults
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.ResultCacheTTL <= 0 {
		o.ResultCacheTTL = DefaultResultCacheTTL
	}
	if o.RecencyBase <= 0 {
		o.RecencyBase = DefaultRecencyBase
	}
	if o.RecencyDecay <= 0 {
		o.RecencyDecay = DefaultRecencyDecay
	}
	if o.RecencyTopK <= 0 {
		o.RecencyTopK = DefaultRecencyTopK
	}
}

// Deps 是 Service 的外部协作方。Cache 与 Trigger 可为 nil（关闭对应能力）。
type Deps struct {
	Catalog  core.CatalogStore
	Events   core.EventStore
	Recorder core.EventRecorder
	Users    core.UserStore

	Profiles *profile.Cache
	Boost    *profile.ClusterBoost
	Adapter  *model.Adapter

	Cache   core.Store       // 结果缓存，可选
	Trigger *retrain.Trigger // 重训计数，可选
	Logger  *slog.Logger
}

// Service 是搜索与推荐的统一入口。
type Service struct {
	deps Deps
	opts Options

	filters []filter.Filter
	logger  *slog.Logger
}

// NewService 创建服务。规则表达式非法时返回错误（装配期失败）。
func NewService(deps Deps, opts Options) (*Service, error) {
	opts.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	filters := []filter.Filter{&filter.PriceRange{}}
	for _, expr := range opts.Rules {
		rule, err := filter.NewRule(expr)
		if err != nil {
			return nil, fmt.Errorf("search: rule %q: %w", expr, err)
		}
		filters = append(filters, rule)
	}

	return &Service{
		deps:    deps,
		opts:    opts,
		filters: filters,
		logger:  logger,
	}, nil
}

// Result 是一次搜索的返回。
type Result struct {
	Items         []*core.Item `json:"items"`
	SuggestedSort string       `json:"suggested_sort,omitempty"` // 意图解析出的排序提示
	Group         string       `json:"group"`
	Cached        bool         `json:"cached"`
}

// Search 执行一次个性化搜索。
//
// query 为空返回 INVALID_INPUT；个性化信号缺失不报错，降级继续。
func (s *Service) Search(ctx context.Context, userID, query string) (*Result, error) {
	return s.SearchN(ctx, userID, query, 0)
}

// SearchN 同 Search，limit<=0 时取默认值。
func (s *Service) SearchN(ctx context.Context, userID, query string, limit int) (*Result, error) {
	query, err := ValidateQuery(query)
	if err != nil {
		return nil, err
	}
	userID, err = SanitizeUserID(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.opts.Limit
	}

	it := intent.Parse(query)
	sctx := core.NewSearchContext(userID, query)
	sctx.Scene = "search"
	sctx.CleanQuery = it.CleanQuery
	sctx.Category = it.Category
	sctx.SortHint = it.Sort
	sctx.MinPrice = it.MinPrice
	sctx.MaxPrice = it.MaxPrice
	sctx.Limit = limit
	if it.FromBrand {
		// 品牌词本身是有效检索文本，保留原始 query 做匹配
		sctx.CleanQuery = query
	}

	s.resolveUserContext(ctx, sctx)

	cacheKey := searchCacheKey(sctx)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		cached.Cached = true
		return cached, nil
	}

	items, err := s.retrieve(ctx, sctx)
	if err != nil {
		return nil, err
	}

	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&filter.FilterNode{Filters: s.filters},
			s.rankNode(sctx.Group),
			&rerank.SortHint{},
			&rerank.TopNNode{N: limit},
		},
	}
	items, err = p.Run(ctx, sctx, items)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Items:         items,
		SuggestedSort: sctx.SortHint,
		Group:         sctx.Group,
	}
	s.cacheSet(ctx, cacheKey, result)
	return result, nil
}

// SearchByCategory 返回指定类目下的个性化排序结果。
func (s *Service) SearchByCategory(ctx context.Context, userID, category string, limit int) (*Result, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, core.ErrInvalidQuery
	}
	userID, err := SanitizeUserID(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.opts.Limit
	}

	sctx := core.NewSearchContext(userID, "")
	sctx.Scene = "category"
	sctx.Category = category
	sctx.Limit = limit
	s.resolveUserContext(ctx, sctx)

	cacheKey := searchCacheKey(sctx)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		cached.Cached = true
		return cached, nil
	}

	src := &recall.Category{Catalog: s.deps.Catalog}
	items, err := src.Recall(ctx, sctx)
	if err != nil {
		return nil, err
	}

	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&filter.FilterNode{Filters: s.filters},
			s.rankNode(sctx.Group),
			&rerank.TopNNode{N: limit},
		},
	}
	items, err = p.Run(ctx, sctx, items)
	if err != nil {
		return nil, err
	}

	result := &Result{Items: items, Group: sctx.Group}
	s.cacheSet(ctx, cacheKey, result)
	return result, nil
}

// RecommendResult 是个性化推荐的返回。
type RecommendResult struct {
	RecentlyViewed  []*core.Product `json:"recently_viewed"`
	Recommendations []*core.Item    `json:"recommendations"`
	Group           string          `json:"group"`
	Cached          bool            `json:"cached"`
}

// Recommend 返回个性化推荐：近期交互商品 + 内容相似/热门混合召回的排序结果。
// 冷启动用户（无近期交互）退化为热门推荐。
func (s *Service) Recommend(ctx context.Context, userID string, limit int) (*RecommendResult, error) {
	userID, err := SanitizeUserID(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.opts.Limit
	}

	sctx := core.NewSearchContext(userID, "")
	sctx.Scene = "recommend"
	sctx.Limit = limit
	s.resolveUserContext(ctx, sctx)

	cacheKey := fmt.Sprintf("recommendations:%s:%s:%d:%d", userID, sctx.Group, sctx.Cluster, limit)
	if s.deps.Cache != nil {
		if data, err := s.deps.Cache.Get(ctx, cacheKey); err == nil {
			var cached RecommendResult
			if json.Unmarshal(data, &cached) == nil {
				cached.Cached = true
				return &cached, nil
			}
		}
	}

	// 近期交互商品（展示用，召回时剔除）
	recentIDs := make([]int64, 0, len(sctx.RecentBoost))
	exclude := make(map[int64]bool, len(sctx.RecentBoost))
	for id := range sctx.RecentBoost {
		recentIDs = append(recentIDs, id)
		exclude[id] = true
	}
	recentProducts, err := s.deps.Catalog.GetProductsByIDs(ctx, recentIDs)
	if err != nil {
		s.logger.Warn("recently viewed lookup degraded", "user_id", userID, "error", err)
		recentProducts = nil
	}

	fanout := &recall.Fanout{
		Sources: []recall.Source{
			&recall.Similar{Catalog: s.deps.Catalog},
			&recall.Popularity{Catalog: s.deps.Catalog, ExcludeIDs: exclude},
		},
		Dedup:         true,
		MergeStrategy: "priority",
		Timeout:       time.Second,
	}

	maxPerCategory := s.opts.MaxPerCategory
	if maxPerCategory <= 0 {
		maxPerCategory = 3
	}
	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			fanout,
			&filter.FilterNode{Filters: append([]filter.Filter{&filter.Seen{IDs: exclude}}, s.filters...)},
			s.rankNode(sctx.Group),
			&rerank.Diversity{MaxPerCategory: maxPerCategory, Limit: limit},
		},
	}
	items, err := p.Run(ctx, sctx, nil)
	if err != nil {
		return nil, err
	}

	result := &RecommendResult{
		RecentlyViewed:  recentProducts,
		Recommendations: items,
		Group:           sctx.Group,
	}
	if s.deps.Cache != nil {
		if data, err := json.Marshal(result); err == nil {
			ttl := int(s.opts.ResultCacheTTL.Seconds())
			if err := s.deps.Cache.Set(ctx, cacheKey, data, ttl); err != nil {
				s.logger.Warn("recommendation cache write failed", "user_id", userID, "error", err)
			}
		}
	}
	return result, nil
}

// LogEvent 记录一条交互事件，并驱动旁路效果：
//   - click 原子递增商品热度
//   - click / add_to_cart 计入重训触发计数
func (s *Service) LogEvent(ctx context.Context, event *core.Event) error {
	if event == nil {
		return core.NewDomainError(core.ModuleSearch, core.ErrorCodeInvalidInput, "search: nil event")
	}
	userID, err := SanitizeUserID(event.UserID)
	if err != nil {
		return err
	}
	event.UserID = userID
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.RecordEvent(ctx, event); err != nil {
			return fmt.Errorf("search: record event: %w", err)
		}
	}

	if event.Type == core.EventClick && event.ProductID != 0 {
		if err := s.deps.Catalog.IncrementPopularity(ctx, event.ProductID, 1); err != nil {
			s.logger.Warn("popularity increment failed", "product_id", event.ProductID, "error", err)
		}
	}
	if s.deps.Trigger != nil &&
		(event.Type == core.EventClick || event.Type == core.EventAddToCart) {
		s.deps.Trigger.RecordEvent()
	}
	return nil
}

// RetrainStatus 返回重训触发器的状态快照，未配置触发器时返回零值。
func (s *Service) RetrainStatus() retrain.Status {
	if s.deps.Trigger == nil {
		return retrain.Status{}
	}
	return s.deps.Trigger.Status()
}

// resolveUserContext 填充实验组/簇/画像/boost/近期加分。
// 每个信号独立降级：失败记日志并保持零值，绝不让个性化失败拖垮请求。
func (s *Service) resolveUserContext(ctx context.Context, sctx *core.SearchContext) {
	if sctx.UserID == "" {
		return
	}

	if s.deps.Users != nil {
		if u, err := s.deps.Users.GetUser(ctx, sctx.UserID); err == nil {
			if u.Group != "" {
				sctx.Group = u.Group
			}
			sctx.Cluster = u.Cluster
		} else if !core.IsNotFound(err) {
			s.logger.Warn("user lookup degraded", "user_id", sctx.UserID, "error", err)
		}
	}

	if s.deps.Profiles != nil {
		if prof, err := s.deps.Profiles.Get(ctx, sctx.UserID); err == nil {
			sctx.Profile = prof
		} else {
			s.logger.Warn("profile signal degraded", "user_id", sctx.UserID, "error", err)
		}
	}

	if s.deps.Boost != nil && sctx.Cluster != core.ClusterUnassigned {
		if boost, err := s.deps.Boost.Get(ctx, sctx.Cluster); err == nil {
			sctx.ClusterBoost = boost
		} else {
			s.logger.Warn("cluster boost signal degraded",
				"user_id", sctx.UserID, "cluster", sctx.Cluster, "error", err)
		}
	}

	if s.deps.Events != nil {
		boost, err := recencyBoost(ctx, s.deps.Events, sctx.UserID,
			s.opts.RecencyBase, s.opts.RecencyDecay, s.opts.RecencyTopK)
		if err != nil {
			s.logger.Warn("recency signal degraded", "user_id", sctx.UserID, "error", err)
		} else {
			sctx.RecentBoost = boost
		}
	}
}

// retrieve 执行召回：模糊召回为主，候选不足且有类目提示时并入类目召回。
func (s *Service) retrieve(ctx context.Context, sctx *core.SearchContext) ([]*core.Item, error) {
	fuzzy := &recall.Fuzzy{Catalog: s.deps.Catalog, Threshold: s.opts.FuzzyThreshold}
	items, err := fuzzy.Recall(ctx, sctx)
	if err != nil {
		return nil, err
	}

	if len(items) < s.opts.FallbackMinResults && sctx.Category != "" {
		cat := &recall.Category{Catalog: s.deps.Catalog}
		extra, err := cat.Recall(ctx, sctx)
		if err != nil {
			s.logger.Warn("category fallback degraded", "category", sctx.Category, "error", err)
			return items, nil
		}
		seen := make(map[int64]bool, len(items))
		for _, it := range items {
			seen[it.ID] = true
		}
		for _, it := range extra {
			if !seen[it.ID] {
				items = append(items, it)
			}
		}
	}
	return items, nil
}

// rankNode 按实验组选择排序节点：A 组个性化模型排序，B 组纯热度。
func (s *Service) rankNode(group string) pipeline.Node {
	if group == "B" {
		return &rank.PopularityNode{}
	}
	return &rank.ModelNode{Adapter: s.deps.Adapter, ClusterWeight: s.opts.ClusterWeight}
}

func searchCacheKey(sctx *core.SearchContext) string {
	return fmt.Sprintf("search:%s:%s:%d:%s:%s:%d",
		sctx.UserID, sctx.Group, sctx.Cluster, sctx.Scene,
		strings.ToLower(strings.TrimSpace(sctx.Query+sctx.Category)), sctx.Limit)
}

func (s *Service) cacheGet(ctx context.Context, key string) (*Result, bool) {
	if s.deps.Cache == nil {
		return nil, false
	}
	data, err := s.deps.Cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (s *Service) cacheSet(ctx context.Context, key string, result *Result) {
	if s.deps.Cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	ttl := int(s.opts.ResultCacheTTL.Seconds())
	if err := s.deps.Cache.Set(ctx, key, data, ttl); err != nil {
		s.logger.Warn("result cache write failed", "key", key, "error", err)
	}
}

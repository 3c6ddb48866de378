package search

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/model"
	"github.com/rushteam/shopkit/profile"
	"github.com/rushteam/shopkit/retrain"
	"github.com/rushteam/shopkit/store"
)

func testService(t *testing.T, withCache bool) (*Service, *store.MemoryCatalog, *store.MemoryEvents, *retrain.Trigger) {
	t.Helper()
	now := time.Now()

	catalog := store.NewMemoryCatalog([]*core.Product{
		{ID: 1, Title: "Wireless Gaming Headphones", Description: "low latency surround", Category: "Gaming", Price: 1500, Rating: 4.5, Popularity: 800, CreatedAt: now},
		{ID: 2, Title: "Pro Gaming Headphones", Description: "studio drivers", Category: "Gaming", Price: 3000, Rating: 4.8, Popularity: 950, CreatedAt: now},
		{ID: 3, Title: "Noise Cancelling Headphones", Description: "travel focus", Category: "Audio", Price: 2200, Rating: 4.6, Popularity: 1200, CreatedAt: now},
		{ID: 4, Title: "Mechanical Keyboard", Description: "tactile switches", Category: "Accessories", Price: 450, Rating: 4.3, Popularity: 600, CreatedAt: now},
	})
	events := store.NewMemoryEvents()
	users := store.NewMemoryUsers([]*core.User{
		{ID: "alice", Group: "A", Cluster: core.ClusterUnassigned},
		{ID: "bob", Group: "B", Cluster: core.ClusterUnassigned},
	})
	models := store.NewMemoryModels()

	logger := slog.Default()
	profiles := profile.NewCache(&profile.Builder{Events: events, Catalog: catalog}, time.Minute, logger)
	boost := profile.NewClusterBoost(users, profiles, nil, time.Hour, logger)
	adapter := model.NewAdapter(context.Background(), models, logger)
	trigger := retrain.NewTrigger()

	var cache core.Store
	if withCache {
		ms := store.NewMemoryStore()
		t.Cleanup(func() { ms.Close() })
		cache = ms
	}

	svc, err := NewService(Deps{
		Catalog:  catalog,
		Events:   events,
		Recorder: events,
		Users:    users,
		Profiles: profiles,
		Boost:    boost,
		Adapter:  adapter,
		Cache:    cache,
		Trigger:  trigger,
		Logger:   logger,
	}, Options{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, catalog, events, trigger
}

func TestSearchPriceConstraintAndSortHint(t *testing.T) {
	svc, _, _, _ := testService(t, false)

	result, err := svc.Search(context.Background(), "alice", "cheap gaming headphones under 2000")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if result.SuggestedSort != "price_asc" {
		t.Errorf("suggested sort = %q, want price_asc", result.SuggestedSort)
	}
	if result.Group != "A" {
		t.Errorf("group = %q, want A", result.Group)
	}
	if len(result.Items) == 0 {
		t.Fatal("no results")
	}
	// $3000 的商品超出价格上限
	for _, it := range result.Items {
		if it.Product.Price > 2000 {
			t.Errorf("product %d at $%.0f exceeds price cap", it.ID, it.Product.Price)
		}
	}
	// price_asc 提示下 $1500 的游戏耳机排第一
	if result.Items[0].ID != 1 {
		t.Errorf("top result = %d, want product 1", result.Items[0].ID)
	}
}

func TestSearchValidation(t *testing.T) {
	svc, _, _, _ := testService(t, false)
	ctx := context.Background()

	if _, err := svc.Search(ctx, "alice", "   "); !core.IsInvalidInput(err) {
		t.Errorf("blank query err = %v, want invalid input", err)
	}
	if _, err := svc.Search(ctx, "user,with,commas", "headphones"); !core.IsInvalidInput(err) {
		t.Errorf("bad user id err = %v, want invalid input", err)
	}
	if _, err := svc.Search(ctx, strings.Repeat("x", 200), "headphones"); !core.IsInvalidInput(err) {
		t.Errorf("long user id err = %v, want invalid input", err)
	}
	// 匿名搜索合法
	if _, err := svc.Search(ctx, "", "headphones"); err != nil {
		t.Errorf("anonymous search err = %v", err)
	}
}

func TestSearchGroupBIgnoresPersonalization(t *testing.T) {
	svc, _, _, _ := testService(t, false)
	ctx := context.Background()

	// bob 在 B 组：纯热度排序
	result, err := svc.Search(ctx, "bob", "headphones")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Group != "B" {
		t.Fatalf("group = %q, want B", result.Group)
	}
	if len(result.Items) < 3 {
		t.Fatalf("results = %d, want all 3 headphones", len(result.Items))
	}
	// 热度 1200 > 950 > 800
	want := []int64{3, 2, 1}
	for i, id := range want {
		if result.Items[i].ID != id {
			t.Errorf("position %d = %d, want %d (popularity order)", i, result.Items[i].ID, id)
		}
	}
}

func TestSearchCategoryFallback(t *testing.T) {
	svc, _, _, _ := testService(t, false)

	// "gaming gear" 模糊命中 Gaming 商品有限，类目提示触发兜底并入
	result, err := svc.Search(context.Background(), "alice", "gaming")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	gaming := 0
	for _, it := range result.Items {
		if it.Product.Category == "Gaming" {
			gaming++
		}
	}
	if gaming < 2 {
		t.Errorf("gaming results = %d, want both gaming products via fallback union", gaming)
	}
}

func TestSearchResultCache(t *testing.T) {
	svc, _, _, _ := testService(t, true)
	ctx := context.Background()

	first, err := svc.Search(ctx, "alice", "headphones")
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	if first.Cached {
		t.Error("first search should not be cached")
	}

	second, err := svc.Search(ctx, "alice", "headphones")
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if !second.Cached {
		t.Error("second identical search should hit cache")
	}
	if len(second.Items) != len(first.Items) {
		t.Errorf("cached items = %d, want %d", len(second.Items), len(first.Items))
	}
}

func TestLogEventSideEffects(t *testing.T) {
	svc, catalog, _, trigger := testService(t, false)
	ctx := context.Background()

	if err := svc.LogEvent(ctx, &core.Event{UserID: "alice", ProductID: 1, Type: core.EventClick}); err != nil {
		t.Fatalf("log click: %v", err)
	}
	if err := svc.LogEvent(ctx, &core.Event{UserID: "alice", ProductID: 2, Type: core.EventAddToCart}); err != nil {
		t.Fatalf("log add_to_cart: %v", err)
	}
	if err := svc.LogEvent(ctx, &core.Event{UserID: "alice", Query: "headphones", Type: core.EventSearch}); err != nil {
		t.Fatalf("log search: %v", err)
	}

	// click 递增热度
	got, _ := catalog.GetProductsByIDs(ctx, []int64{1})
	if got[0].Popularity != 801 {
		t.Errorf("popularity after click = %d, want 801", got[0].Popularity)
	}
	// add_to_cart 不递增热度
	got, _ = catalog.GetProductsByIDs(ctx, []int64{2})
	if got[0].Popularity != 950 {
		t.Errorf("popularity after add_to_cart = %d, want 950", got[0].Popularity)
	}

	// click 与 add_to_cart 计入重训计数，search 不计入
	status := trigger.Status()
	if status.ModelEventCount != 2 {
		t.Errorf("retrain counter = %d, want 2", status.ModelEventCount)
	}
}

func TestSearchByCategory(t *testing.T) {
	svc, _, _, _ := testService(t, false)

	result, err := svc.SearchByCategory(context.Background(), "alice", "Gaming", 10)
	if err != nil {
		t.Fatalf("search by category: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("results = %d, want 2 gaming products", len(result.Items))
	}
	for _, it := range result.Items {
		if it.Product.Category != "Gaming" {
			t.Errorf("result category = %q, want Gaming", it.Product.Category)
		}
	}

	if _, err := svc.SearchByCategory(context.Background(), "alice", "  ", 10); !core.IsInvalidInput(err) {
		t.Errorf("blank category err = %v, want invalid input", err)
	}
}

func TestRecommendColdStartAndRecency(t *testing.T) {
	svc, _, _, _ := testService(t, false)
	ctx := context.Background()

	// 冷启动：没有交互历史时退化为热门推荐
	cold, err := svc.Recommend(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("cold recommend: %v", err)
	}
	if len(cold.RecentlyViewed) != 0 {
		t.Errorf("cold recently viewed = %d, want 0", len(cold.RecentlyViewed))
	}
	if len(cold.Recommendations) == 0 {
		t.Error("cold start should fall back to popularity recall")
	}

	// 交互后：近期商品进入 recently viewed 且不再出现在推荐里
	if err := svc.LogEvent(ctx, &core.Event{UserID: "alice", ProductID: 1, Type: core.EventClick}); err != nil {
		t.Fatalf("log event: %v", err)
	}
	warm, err := svc.Recommend(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("warm recommend: %v", err)
	}
	if len(warm.RecentlyViewed) != 1 || warm.RecentlyViewed[0].ID != 1 {
		t.Errorf("recently viewed = %v, want product 1", warm.RecentlyViewed)
	}
	for _, it := range warm.Recommendations {
		if it.ID == 1 {
			t.Error("recently interacted product should be excluded from recommendations")
		}
	}
}

func TestRecencyBoostDecay(t *testing.T) {
	events := store.NewMemoryEvents()
	ctx := context.Background()
	base := time.Now()
	for i, pid := range []int64{10, 20, 30} {
		events.RecordEvent(ctx, &core.Event{
			UserID: "u1", ProductID: pid, Type: core.EventClick,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	boost, err := recencyBoost(ctx, events, "u1", DefaultRecencyBase, DefaultRecencyDecay, DefaultRecencyTopK)
	if err != nil {
		t.Fatalf("recency boost: %v", err)
	}

	// 最近的在前：30 → 1.0，20 → 0.85，10 → 0.70
	want := map[int64]float64{30: 1.0, 20: 0.85, 10: 0.70}
	for pid, w := range want {
		got := boost[pid]
		if diff := got - w; diff > 0.001 || diff < -0.001 {
			t.Errorf("boost[%d] = %v, want %v", pid, got, w)
		}
	}
}

package rank

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/shopkit/core"
)

func itemsFor(products ...*core.Product) []*core.Item {
	out := make([]*core.Item, 0, len(products))
	for _, p := range products {
		out = append(out, core.NewItem(p))
	}
	return out
}

func TestModelNodeHeuristicOrder(t *testing.T) {
	// 无 Adapter：按归一化热度兜底排序
	now := time.Now()
	items := itemsFor(
		&core.Product{ID: 1, Category: "Audio", Popularity: 100, CreatedAt: now},
		&core.Product{ID: 2, Category: "Audio", Popularity: 9000, CreatedAt: now},
		&core.Product{ID: 3, Category: "Audio", Popularity: 500, CreatedAt: now},
	)

	node := &ModelNode{}
	sctx := core.NewSearchContext("u1", "speakers")
	got, err := node.Process(context.Background(), sctx, items)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	wantOrder := []int64{2, 3, 1}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("position %d = product %d, want %d", i, got[i].ID, want)
		}
	}
	if lbl, ok := got[0].Labels["rank_model"]; !ok || lbl.Value != "heuristic" {
		t.Errorf("rank_model label = %+v, want heuristic", lbl)
	}
}

func TestModelNodeRecencyBoost(t *testing.T) {
	now := time.Now()
	items := itemsFor(
		&core.Product{ID: 1, Category: "Audio", Popularity: 9000, CreatedAt: now},
		&core.Product{ID: 2, Category: "Audio", Popularity: 100, CreatedAt: now},
	)

	sctx := core.NewSearchContext("u1", "speakers")
	sctx.RecentBoost = map[int64]float64{2: 1.0}

	node := &ModelNode{}
	got, err := node.Process(context.Background(), sctx, items)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	// 近期加分把低热度商品顶到前面：0.01+1.0 > 0.9
	if got[0].ID != 2 {
		t.Errorf("top item = %d, want recently interacted product 2", got[0].ID)
	}
}

func TestModelNodeClusterBoost(t *testing.T) {
	now := time.Now()
	items := itemsFor(
		&core.Product{ID: 1, Category: "Audio", Popularity: 1000, CreatedAt: now},
		&core.Product{ID: 2, Category: "Gaming", Popularity: 1000, CreatedAt: now},
	)

	sctx := core.NewSearchContext("u1", "")
	sctx.ClusterBoost = map[string]float64{"Gaming": 0.8}

	node := &ModelNode{}
	if _, err := node.Process(context.Background(), sctx, items); err != nil {
		t.Fatalf("process: %v", err)
	}

	var audio, gaming *core.Item
	for _, it := range items {
		switch it.Product.Category {
		case "Audio":
			audio = it
		case "Gaming":
			gaming = it
		}
	}
	// 簇级权重只进特征，不直接进兜底分；特征向量必须体现差异
	if gaming.Features[3] <= audio.Features[3] {
		t.Errorf("gaming category feature %v should exceed audio %v",
			gaming.Features[3], audio.Features[3])
	}
}

func TestModelNodeZeroClusterWeightDisablesBoost(t *testing.T) {
	now := time.Now()
	sctx := core.NewSearchContext("u1", "")
	sctx.ClusterBoost = map[string]float64{"Gaming": 0.8}

	// 显式 0：簇信号关闭，类目特征不受簇加权影响
	zero := 0.0
	items := itemsFor(&core.Product{ID: 1, Category: "Gaming", Popularity: 1000, CreatedAt: now})
	node := &ModelNode{ClusterWeight: &zero}
	if _, err := node.Process(context.Background(), sctx, items); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := items[0].Features[3]; got != 0 {
		t.Errorf("category feature with weight 0 = %v, want 0", got)
	}

	// nil：回落到默认系数 0.5
	items = itemsFor(&core.Product{ID: 2, Category: "Gaming", Popularity: 1000, CreatedAt: now})
	node = &ModelNode{}
	if _, err := node.Process(context.Background(), sctx, items); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got, want := items[0].Features[3], DefaultClusterWeight*0.8; got != want {
		t.Errorf("category feature with nil weight = %v, want %v", got, want)
	}
}

func TestPopularityNodeIgnoresProfile(t *testing.T) {
	now := time.Now()
	items := itemsFor(
		&core.Product{ID: 1, Category: "Audio", Popularity: 50, CreatedAt: now},
		&core.Product{ID: 2, Category: "Gaming", Popularity: 500, CreatedAt: now},
	)

	// B 组：画像与近期加分全部存在也不影响排序
	sctx := core.NewSearchContext("u1", "")
	sctx.Group = "B"
	prof := core.NewUserProfile("u1")
	prof.CategoryPref["Audio"] = 1.0
	sctx.Profile = prof
	sctx.RecentBoost = map[int64]float64{1: 10.0}

	node := &PopularityNode{}
	got, err := node.Process(context.Background(), sctx, items)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got[0].ID != 2 {
		t.Errorf("top item = %d, want most popular product 2", got[0].ID)
	}
	if got[0].Score != 500 {
		t.Errorf("score = %v, want raw popularity 500", got[0].Score)
	}
}

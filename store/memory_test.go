package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rushteam/shopkit/core"
)

func TestMemoryStoreTTL(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := ms.Get(ctx, "k1")
	if err != nil || string(got) != "v1" {
		t.Fatalf("get = (%q, %v), want (v1, nil)", got, err)
	}

	// 已过期的 key 读不到
	ms.mu.Lock()
	past := time.Now().Add(-time.Second)
	ms.data["k2"] = &entry{value: []byte("v2"), ttl: &past}
	ms.mu.Unlock()
	if _, err := ms.Get(ctx, "k2"); !core.IsStoreNotFound(err) {
		t.Errorf("expired get err = %v, want store not found", err)
	}

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("missing get err = %v, want store not found", err)
	}
}

func TestMemoryStoreOverwriteClearsExpiry(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	// 先带 TTL 写入，再不带 TTL 覆盖：过期记录必须清掉，
	// 否则清理协程会按旧 TTL 误删新值
	ms.Set(ctx, "k1", []byte("v1"), 60)
	ms.Set(ctx, "k1", []byte("v2"))
	ms.BatchSet(ctx, map[string][]byte{"k2": []byte("v1")}, 60)
	ms.BatchSet(ctx, map[string][]byte{"k2": []byte("v2")})

	ms.mu.RLock()
	_, tracked1 := ms.ttl["k1"]
	_, tracked2 := ms.ttl["k2"]
	ms.mu.RUnlock()
	if tracked1 || tracked2 {
		t.Errorf("expiry tracked after non-ttl overwrite: k1=%v k2=%v", tracked1, tracked2)
	}

	for _, key := range []string{"k1", "k2"} {
		got, err := ms.Get(ctx, key)
		if err != nil || string(got) != "v2" {
			t.Errorf("get %s = (%q, %v), want (v2, nil)", key, got, err)
		}
	}
}

func TestMemoryStoreZSet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	ms.ZAdd(ctx, "popular", 10, "1")
	ms.ZAdd(ctx, "popular", 30, "2")
	ms.ZAdd(ctx, "popular", 20, "3")

	got, err := ms.ZRange(ctx, "popular", 0, 1)
	if err != nil {
		t.Fatalf("zrange: %v", err)
	}
	if len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Errorf("zrange top2 = %v, want [2 3]", got)
	}

	score, err := ms.ZScore(ctx, "popular", "2")
	if err != nil || score != 30 {
		t.Errorf("zscore = (%v, %v), want (30, nil)", score, err)
	}
}

func TestMemoryCatalogFilter(t *testing.T) {
	catalog := NewMemoryCatalog([]*core.Product{
		{ID: 1, Category: "Audio"},
		{ID: 2, Category: "Gaming"},
		{ID: 3, Category: "Gaming"},
	})
	ctx := context.Background()

	got, err := catalog.GetCandidates(ctx, core.CatalogFilter{Category: "Gaming"})
	if err != nil {
		t.Fatalf("get candidates: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("gaming candidates = %d, want 2", len(got))
	}

	byID, err := catalog.GetProductsByIDs(ctx, []int64{3, 1, 99})
	if err != nil {
		t.Fatalf("by ids: %v", err)
	}
	if len(byID) != 2 || byID[0].ID != 3 || byID[1].ID != 1 {
		t.Errorf("by ids = %v, want products 3 then 1", byID)
	}
}

func TestMemoryCatalogConcurrentIncrement(t *testing.T) {
	catalog := NewMemoryCatalog([]*core.Product{{ID: 1, Popularity: 0}})
	ctx := context.Background()

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			catalog.IncrementPopularity(ctx, 1, 1)
		}()
	}
	wg.Wait()

	got, _ := catalog.GetProductsByIDs(ctx, []int64{1})
	if got[0].Popularity != n {
		t.Errorf("popularity = %d, want %d (no lost updates)", got[0].Popularity, n)
	}
}

func TestMemoryEventsRecentOrder(t *testing.T) {
	events := NewMemoryEvents()
	ctx := context.Background()
	base := time.Now()

	for i, pid := range []int64{1, 2, 3} {
		events.RecordEvent(ctx, &core.Event{
			UserID: "u1", ProductID: pid, Type: core.EventClick,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}
	events.RecordEvent(ctx, &core.Event{UserID: "u2", ProductID: 9, Type: core.EventClick, Timestamp: base})

	got, err := events.GetRecentEvents(ctx, "u1", []core.EventType{core.EventClick}, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].ProductID != 3 || got[1].ProductID != 2 {
		t.Errorf("recent = %v, want newest first [3 2]", got)
	}
}

func TestMemoryUsersClusterAssignment(t *testing.T) {
	users := NewMemoryUsers([]*core.User{
		{ID: "u1", Cluster: core.ClusterUnassigned},
		{ID: "u2", Cluster: core.ClusterUnassigned},
	})
	ctx := context.Background()

	if err := users.PersistClusterAssignment(ctx, map[string]int{"u1": 0, "u2": 1}); err != nil {
		t.Fatalf("persist: %v", err)
	}
	u2, err := users.GetUser(ctx, "u2")
	if err != nil || u2.Cluster != 1 {
		t.Errorf("u2 = (%+v, %v), want cluster 1", u2, err)
	}
	if _, err := users.GetUser(ctx, "missing"); !core.IsNotFound(err) {
		t.Errorf("missing user err = %v, want not found", err)
	}
}

func TestKVModelsRoundTrip(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	models := &KVModels{Store: ms}
	ctx := context.Background()

	if _, err := models.LoadModel(ctx); !core.IsNotFound(err) {
		t.Errorf("cold load err = %v, want model not found", err)
	}
	if err := models.SaveModel(ctx, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := models.LoadModel(ctx)
	if err != nil || string(got) != `{"v":1}` {
		t.Errorf("load = (%q, %v)", got, err)
	}
}

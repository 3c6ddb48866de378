package model

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/rushteam/shopkit/core"
	"github.com/rushteam/shopkit/feature"
)

type memModels struct {
	artifact []byte
}

func (m *memModels) LoadModel(ctx context.Context) ([]byte, error) {
	if m.artifact == nil {
		return nil, core.ErrModelNotFound
	}
	return m.artifact, nil
}

func (m *memModels) SaveModel(ctx context.Context, artifact []byte) error {
	m.artifact = artifact
	return nil
}

func TestAdapterColdStartFallback(t *testing.T) {
	adapter := NewAdapter(context.Background(), &memModels{}, slog.Default())

	if adapter.Loaded() {
		t.Error("adapter should start in fallback mode without artifact")
	}
	if got := adapter.ModelName(); got != "heuristic" {
		t.Errorf("model name = %q, want heuristic", got)
	}

	features := []float64{0.42, 1, 1, 0, 0}
	if got := adapter.Score(features); got != 0.42 {
		t.Errorf("fallback score = %v, want popularity feature 0.42", got)
	}
	if got := adapter.Score(nil); got != 0 {
		t.Errorf("empty features score = %v, want 0", got)
	}
}

func TestAdapterReload(t *testing.T) {
	store := &memModels{}
	adapter := NewAdapter(context.Background(), store, slog.Default())

	m := &LRModel{
		Bias:      0,
		Weights:   []float64{1, 0, 0, 0, 0},
		Version:   1,
		TrainedAt: time.Now(),
	}
	data, err := m.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	store.artifact = data

	if err := adapter.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !adapter.Loaded() {
		t.Error("adapter should be loaded after reload")
	}

	// sigmoid(1*0.8) ≈ 0.69
	got := adapter.Score([]float64{0.8, 0, 0, 0, 0})
	if got < 0.68 || got > 0.70 {
		t.Errorf("score = %v, want ~0.69", got)
	}
}

func TestDecodeLRModelShape(t *testing.T) {
	if _, err := DecodeLRModel([]byte(`{"weights":[1,2]}`)); err == nil {
		t.Error("wrong weight count should fail decode")
	}
	if _, err := DecodeLRModel([]byte(`not json`)); err == nil {
		t.Error("garbage should fail decode")
	}
}

func TestTrainerFit(t *testing.T) {
	now := time.Now()
	catalog := &fakeCatalog{products: []*core.Product{
		{ID: 1, Category: "Gaming", Price: 1500, Rating: 4.5, Popularity: 800, CreatedAt: now},
		{ID: 2, Category: "Gaming", Price: 3000, Rating: 4.8, Popularity: 900, CreatedAt: now},
		{ID: 3, Category: "Audio", Price: 200, Rating: 3.9, Popularity: 100, CreatedAt: now},
		{ID: 4, Category: "Audio", Price: 500, Rating: 4.2, Popularity: 300, CreatedAt: now},
	}}
	events := &fakeEvents{events: []*core.Event{
		{UserID: "u1", ProductID: 1, Type: core.EventClick, Timestamp: now},
		{UserID: "u1", ProductID: 2, Type: core.EventAddToCart, Timestamp: now},
		{UserID: "u2", ProductID: 3, Type: core.EventClick, Timestamp: now},
	}}
	models := &memModels{}

	trainer := &Trainer{Catalog: catalog, Events: events, Models: models}
	m, err := trainer.Fit(context.Background())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(m.Weights) != feature.Size {
		t.Errorf("weights len = %d, want %d", len(m.Weights), feature.Size)
	}
	if models.artifact == nil {
		t.Error("artifact should be persisted")
	}

	decoded, err := DecodeLRModel(models.artifact)
	if err != nil {
		t.Fatalf("decode persisted artifact: %v", err)
	}
	if decoded.Version != m.Version {
		t.Errorf("version = %q, want %q", decoded.Version, m.Version)
	}

	// 确定性：同样数据重训产出同样权重
	m2, err := trainer.Fit(context.Background())
	if err != nil {
		t.Fatalf("refit: %v", err)
	}
	for i := range m.Weights {
		if m.Weights[i] != m2.Weights[i] {
			t.Errorf("weight %d differs across identical fits: %v vs %v", i, m.Weights[i], m2.Weights[i])
		}
	}
}

func TestTrainerNoEvents(t *testing.T) {
	trainer := &Trainer{
		Catalog: &fakeCatalog{},
		Events:  &fakeEvents{},
		Models:  &memModels{},
	}
	if _, err := trainer.Fit(context.Background()); err == nil {
		t.Error("fit without events should fail")
	}
}

type fakeCatalog struct {
	products []*core.Product
}

func (f *fakeCatalog) GetCandidates(ctx context.Context, filter core.CatalogFilter) ([]*core.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) GetProductsByIDs(ctx context.Context, ids []int64) ([]*core.Product, error) {
	var out []*core.Product
	for _, id := range ids {
		for _, p := range f.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeCatalog) IncrementPopularity(ctx context.Context, productID int64, delta int64) error {
	return nil
}

type fakeEvents struct {
	events []*core.Event
}

func (f *fakeEvents) GetRecentEvents(ctx context.Context, userID string, types []core.EventType, limit int) ([]*core.Event, error) {
	return nil, nil
}

func (f *fakeEvents) GetEvents(ctx context.Context, filter core.EventFilter) ([]*core.Event, error) {
	var out []*core.Event
	for _, e := range f.events {
		if filter.MatchType(e.Type) {
			out = append(out, e)
		}
	}
	return out, nil
}

package cluster

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rushteam/shopkit/core"
)

type fakeCatalog struct {
	products []*core.Product
}

func (f *fakeCatalog) GetCandidates(ctx context.Context, filter core.CatalogFilter) ([]*core.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) GetProductsByIDs(ctx context.Context, ids []int64) ([]*core.Product, error) {
	return nil, nil
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

type fakeUsers struct {
	assignment map[string]int
}

func (f *fakeUsers) GetUser(ctx context.Context, userID string) (*core.User, error) {
	return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound, "user not found")
}

func (f *fakeUsers) ListUsers(ctx context.Context) ([]*core.User, error) { return nil, nil }

func (f *fakeUsers) PersistClusterAssignment(ctx context.Context, assignment map[string]int) error {
	f.assignment = assignment
	return nil
}

func testProducts() []*core.Product {
	now := time.Now()
	return []*core.Product{
		{ID: 1, Category: "Gaming", Price: 2000, CreatedAt: now},
		{ID: 2, Category: "Gaming", Price: 2500, CreatedAt: now},
		{ID: 3, Category: "Audio", Price: 150, CreatedAt: now},
		{ID: 4, Category: "Audio", Price: 200, CreatedAt: now},
	}
}

func click(user string, product int64) *core.Event {
	return &core.Event{UserID: user, ProductID: product, Type: core.EventClick, Timestamp: time.Now()}
}

func TestEngineSeparatesBehaviorGroups(t *testing.T) {
	// 两类行为：高价游戏玩家 vs 低价音频买家
	events := &fakeEvents{events: []*core.Event{
		click("gamer1", 1), click("gamer1", 2), click("gamer1", 1),
		click("gamer2", 2), click("gamer2", 1),
		click("audio1", 3), click("audio1", 4),
		click("audio2", 4), click("audio2", 3), click("audio2", 3),
	}}
	users := &fakeUsers{}
	engine := &Engine{
		Catalog:  &fakeCatalog{products: testProducts()},
		Events:   events,
		Users:    users,
		Clusters: 2,
	}

	assignment, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(assignment) != 4 {
		t.Fatalf("assigned %d users, want 4", len(assignment))
	}
	if assignment["gamer1"] != assignment["gamer2"] {
		t.Errorf("gamers split across clusters: %d vs %d", assignment["gamer1"], assignment["gamer2"])
	}
	if assignment["audio1"] != assignment["audio2"] {
		t.Errorf("audio buyers split across clusters: %d vs %d", assignment["audio1"], assignment["audio2"])
	}
	if assignment["gamer1"] == assignment["audio1"] {
		t.Error("distinct behavior groups should land in distinct clusters")
	}
	if !reflect.DeepEqual(users.assignment, assignment) {
		t.Error("assignment should be persisted as returned")
	}
}

func TestEngineSingleUserDegenerates(t *testing.T) {
	events := &fakeEvents{events: []*core.Event{click("only", 1)}}
	engine := &Engine{
		Catalog:  &fakeCatalog{products: testProducts()},
		Events:   events,
		Users:    &fakeUsers{},
		Clusters: 3,
	}

	assignment, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := assignment["only"]; got != 0 {
		t.Errorf("single user cluster = %d, want 0", got)
	}
}

func TestEngineNoEvents(t *testing.T) {
	engine := &Engine{
		Catalog: &fakeCatalog{products: testProducts()},
		Events:  &fakeEvents{},
		Users:   &fakeUsers{},
	}
	assignment, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(assignment) != 0 {
		t.Errorf("assignment = %v, want empty", assignment)
	}
}

func TestEngineDeterministic(t *testing.T) {
	events := &fakeEvents{events: []*core.Event{
		click("a", 1), click("b", 3), click("c", 1), click("d", 4),
	}}
	run := func() map[string]int {
		engine := &Engine{
			Catalog:  &fakeCatalog{products: testProducts()},
			Events:   events,
			Users:    &fakeUsers{},
			Clusters: 2,
		}
		assignment, err := engine.Run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return assignment
	}

	first := run()
	for i := 0; i < 10; i++ {
		if got := run(); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, first produced %v", i, got, first)
		}
	}
}

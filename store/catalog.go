package store

import (
	"context"
	"sync"

	"github.com/rushteam/shopkit/core"
)

// MemoryCatalog 是内存实现的 CatalogStore，用于测试/开发/单机部署。
// 商品按插入顺序返回，IncrementPopularity 在锁内完成 read-modify-write。
type MemoryCatalog struct {
	mu       sync.RWMutex
	order    []int64
	products map[int64]*core.Product
}

func NewMemoryCatalog(products []*core.Product) *MemoryCatalog {
	c := &MemoryCatalog{
		products: make(map[int64]*core.Product, len(products)),
	}
	for _, p := range products {
		c.put(p)
	}
	return c
}

// Upsert 新增或覆盖一个商品。
func (c *MemoryCatalog) Upsert(p *core.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(p)
}

func (c *MemoryCatalog) put(p *core.Product) {
	if _, ok := c.products[p.ID]; !ok {
		c.order = append(c.order, p.ID)
	}
	cp := *p
	c.products[p.ID] = &cp
}

func (c *MemoryCatalog) GetCandidates(ctx context.Context, filter core.CatalogFilter) ([]*core.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	allowed := map[int64]bool(nil)
	if len(filter.IDs) > 0 {
		allowed = make(map[int64]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			allowed[id] = true
		}
	}

	out := make([]*core.Product, 0, len(c.order))
	for _, id := range c.order {
		p := c.products[id]
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if allowed != nil && !allowed[id] {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (c *MemoryCatalog) GetProductsByIDs(ctx context.Context, ids []int64) ([]*core.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*core.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (c *MemoryCatalog) IncrementPopularity(ctx context.Context, productID int64, delta int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "catalog: product not found")
	}
	p.Popularity += delta
	return nil
}

var _ core.CatalogStore = (*MemoryCatalog)(nil)

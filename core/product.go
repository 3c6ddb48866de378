package core

import "time"

// Product 是商品目录中的一条记录。
// 除 Popularity 外全部为不可变的目录事实；Popularity 随交互事件单调递增，
// 由 CatalogStore.IncrementPopularity 原子更新（并发点击不丢更新）。
type Product struct {
	ID          int64
	Title       string
	Description string
	Category    string
	Price       float64
	Rating      float64 // 0-5
	ReviewCount int
	Popularity  int64     // 单调递增的交互计数
	CreatedAt   time.Time // 驱动 freshness 特征
}

package core

import "context"

// 本文件定义引擎消费的外部协作方契约。认证、购物车、事件持久化、
// HTTP 路由均在引擎之外；这里只描述引擎读写所需的最小接口。

// CatalogFilter 是候选检索的过滤条件。
type CatalogFilter struct {
	Category string  // 为空表示不限类目
	IDs      []int64 // 为空表示不限 id
}

// CatalogStore 是商品目录的只读视图（Popularity 递增除外）。
type CatalogStore interface {
	// GetCandidates 按过滤条件返回候选商品
	GetCandidates(ctx context.Context, filter CatalogFilter) ([]*Product, error)

	// GetProductsByIDs 批量读取商品
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*Product, error)

	// IncrementPopularity 原子递增商品热度（read-modify-write 不可丢更新）
	IncrementPopularity(ctx context.Context, productID int64, delta int64) error
}

// EventStore 是交互事件的只读聚合视图。
type EventStore interface {
	// GetRecentEvents 返回用户最近的事件，按时间倒序
	GetRecentEvents(ctx context.Context, userID string, types []EventType, limit int) ([]*Event, error)

	// GetEvents 按过滤条件返回事件（画像 / 聚类构建用）
	GetEvents(ctx context.Context, filter EventFilter) ([]*Event, error)
}

// EventRecorder 负责事件写入。事件是 append-only 的，没有更新与删除。
type EventRecorder interface {
	RecordEvent(ctx context.Context, event *Event) error
}

// User 是外部用户系统中与排序相关的字段。
type User struct {
	ID      string
	Cluster int    // 行为簇 id，ClusterUnassigned 表示未分配
	Group   string // 实验组 "A" / "B"
}

// UserStore 是用户系统的窄接口。
type UserStore interface {
	// GetUser 读取用户；不存在时返回 NOT_FOUND
	GetUser(ctx context.Context, userID string) (*User, error)

	// ListUsers 返回所有用户（簇级 boost 聚合需要簇成员关系）
	ListUsers(ctx context.Context) ([]*User, error)

	// PersistClusterAssignment 批量覆盖写入所有用户的簇分配。
	// 必须整批生效：读方看到旧分配或新分配，绝不会看到部分更新。
	PersistClusterAssignment(ctx context.Context, assignment map[string]int) error
}

// ModelStore 负责排序模型 artifact 的读写（格式由 model 包定义）。
type ModelStore interface {
	// LoadModel 读取当前 artifact；不存在时返回 ErrModelNotFound
	LoadModel(ctx context.Context) ([]byte, error)

	// SaveModel 写入新的 artifact
	SaveModel(ctx context.Context, artifact []byte) error
}

package core

import "time"

// EventType 是交互事件类型。
type EventType string

const (
	EventSearch    EventType = "search"
	EventClick     EventType = "click"
	EventAddToCart EventType = "add_to_cart"
)

// Weight 返回事件在画像构建与训练标签中的权重。
// add_to_cart 表达的偏好强于 click；search 不计入偏好。
func (t EventType) Weight() float64 {
	switch t {
	case EventClick:
		return 1
	case EventAddToCart:
		return 2
	default:
		return 0
	}
}

// Event 是一条 append-only 的交互事件。
// 本引擎只读取聚合窗口内的事件，从不修改或删除（清理是外部职责）。
type Event struct {
	UserID    string // 可为空（匿名用户）
	Query     string // 可为空
	ProductID int64  // 0 表示无关联商品
	Type      EventType
	Group     string // 事件发生时生效的实验组（"A" / "B"）
	Timestamp time.Time
	Position  int // 结果位次（可选，0 表示未知）
}

// EventFilter 是 EventStore.GetEvents 的查询条件。
type EventFilter struct {
	UserID string      // 为空表示所有用户
	Types  []EventType // 为空表示所有类型
	Since  time.Time   // 零值表示不限
	Limit  int         // <=0 表示不限
}

// MatchType 判断事件类型是否命中过滤条件。
func (f EventFilter) MatchType(t EventType) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, ft := range f.Types {
		if ft == t {
			return true
		}
	}
	return false
}

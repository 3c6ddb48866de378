package store

import (
	"context"
	"sync"

	"github.com/rushteam/shopkit/core"
)

// MemoryEvents 是内存实现的事件存储，append-only。
// 同时实现 core.EventStore（读）与 core.EventRecorder（写）。
type MemoryEvents struct {
	mu     sync.RWMutex
	events []*core.Event
}

func NewMemoryEvents() *MemoryEvents {
	return &MemoryEvents{}
}

func (s *MemoryEvents) RecordEvent(ctx context.Context, event *core.Event) error {
	cp := *event
	s.mu.Lock()
	s.events = append(s.events, &cp)
	s.mu.Unlock()
	return nil
}

// GetRecentEvents 返回用户最近的事件，按时间倒序。
func (s *MemoryEvents) GetRecentEvents(
	ctx context.Context,
	userID string,
	types []core.EventType,
	limit int,
) ([]*core.Event, error) {
	filter := core.EventFilter{UserID: userID, Types: types}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.Event, 0, limit)
	// 事件按写入顺序存放，从尾部倒着扫即可
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if e.UserID != userID {
			continue
		}
		if !filter.MatchType(e.Type) {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryEvents) GetEvents(ctx context.Context, filter core.EventFilter) ([]*core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.Event, 0, len(s.events))
	for _, e := range s.events {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if !filter.MatchType(e.Type) {
			continue
		}
		if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

var _ core.EventStore = (*MemoryEvents)(nil)
var _ core.EventRecorder = (*MemoryEvents)(nil)

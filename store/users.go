package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/shopkit/core"
)

// MemoryUsers 是内存实现的 UserStore。
// PersistClusterAssignment 整批替换簇分配：读方看到旧分配或新分配，
// 不会看到部分更新。
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]*core.User
}

func NewMemoryUsers(users []*core.User) *MemoryUsers {
	s := &MemoryUsers{users: make(map[string]*core.User, len(users))}
	for _, u := range users {
		cp := *u
		s.users[u.ID] = &cp
	}
	return s
}

// Upsert 新增或覆盖一个用户。
func (s *MemoryUsers) Upsert(u *core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *MemoryUsers) GetUser(ctx context.Context, userID string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound, "store: user not found")
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUsers) ListUsers(ctx context.Context) ([]*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryUsers) PersistClusterAssignment(ctx context.Context, assignment map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, cluster := range assignment {
		if u, ok := s.users[id]; ok {
			u.Cluster = cluster
		}
	}
	return nil
}

var _ core.UserStore = (*MemoryUsers)(nil)

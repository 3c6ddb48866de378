package store

import (
	"context"
	"sync"

	"github.com/rushteam/shopkit/core"
)

// MemoryModels 是内存实现的 ModelStore，保存最新的模型 artifact。
type MemoryModels struct {
	mu       sync.RWMutex
	artifact []byte
}

func NewMemoryModels() *MemoryModels {
	return &MemoryModels{}
}

func (s *MemoryModels) LoadModel(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.artifact == nil {
		return nil, core.ErrModelNotFound
	}
	out := make([]byte, len(s.artifact))
	copy(out, s.artifact)
	return out, nil
}

func (s *MemoryModels) SaveModel(ctx context.Context, artifact []byte) error {
	cp := make([]byte, len(artifact))
	copy(cp, artifact)

	s.mu.Lock()
	s.artifact = cp
	s.mu.Unlock()
	return nil
}

var _ core.ModelStore = (*MemoryModels)(nil)

// KVModels 把模型 artifact 存进任意 core.Store（多副本共享一份模型）。
type KVModels struct {
	Store core.Store
	Key   string // 默认 "model:ranking"
}

func (s *KVModels) key() string {
	if s.Key == "" {
		return "model:ranking"
	}
	return s.Key
}

func (s *KVModels) LoadModel(ctx context.Context) ([]byte, error) {
	data, err := s.Store.Get(ctx, s.key())
	if core.IsStoreNotFound(err) {
		return nil, core.ErrModelNotFound
	}
	return data, err
}

func (s *KVModels) SaveModel(ctx context.Context, artifact []byte) error {
	return s.Store.Set(ctx, s.key(), artifact)
}

var _ core.ModelStore = (*KVModels)(nil)

package retrain

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLockLease 是重训锁的租约时长。重训应该远快于租约；
// 持有者崩溃时锁随租约过期自动释放，不需要人工介入。
const DefaultLockLease = time.Hour

// Locker 是重训任务的互斥锁抽象。Acquire 是非阻塞的：
// 返回 false 表示别的副本正在重训，本轮直接跳过。
type Locker interface {
	// Acquire 尝试获取名为 name 的锁，租约 lease
	Acquire(ctx context.Context, name string, lease time.Duration) (bool, error)

	// Release 释放锁（尽力而为，租约过期也会自动释放）
	Release(ctx context.Context, name string) error
}

// LocalLocker 是进程内锁，单副本部署用。
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

func (l *LocalLocker) Acquire(_ context.Context, name string, lease time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expire, ok := l.held[name]; ok && now.Before(expire) {
		return false, nil
	}
	l.held[name] = now.Add(lease)
	return true, nil
}

func (l *LocalLocker) Release(_ context.Context, name string) error {
	l.mu.Lock()
	delete(l.held, name)
	l.mu.Unlock()
	return nil
}

// RedisLocker 用 SETNX + TTL 实现跨副本互斥。
// 没有做 fencing token：重训是幂等的批任务，偶发的双跑只浪费算力，
// 不会破坏数据（模型写入是整体覆盖，簇分配是整批替换）。
type RedisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, prefix: "retrain:lock:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, lease time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+name, "1", lease).Result()
}

func (l *RedisLocker) Release(ctx context.Context, name string) error {
	return l.client.Del(ctx, l.prefix+name).Err()
}

var _ Locker = (*LocalLocker)(nil)
var _ Locker = (*RedisLocker)(nil)

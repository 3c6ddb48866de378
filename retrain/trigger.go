// Package retrain 负责模型与聚类的重训触发与调度：
// 事件计数 + 最大间隔双条件触发，后台定时巡检，分布式锁防止多副本并发重训。
package retrain

import (
	"sync"
	"time"
)

// 触发阈值的默认值。模型重训比聚类重训更频繁：
// 排序模型对行为漂移敏感，簇结构的变化要慢得多。
const (
	DefaultModelEventThreshold   = 100
	DefaultModelMaxInterval      = 6 * time.Hour
	DefaultClusterEventThreshold = 200
	DefaultClusterMaxInterval    = 24 * time.Hour
)

// Trigger 跟踪自上次重训以来的事件量与时间，判定是否到期。
// 判定条件（满足其一即到期）：
//   - 事件数 >= 阈值
//   - 距上次重训时间 >= 最大间隔
//
// 所有方法并发安全。计数在 Mark* 时清零，重训失败不应调用 Mark*，
// 这样计数保留、下一轮巡检会再次触发。
type Trigger struct {
	modelEventThreshold   int
	modelMaxInterval      time.Duration
	clusterEventThreshold int
	clusterMaxInterval    time.Duration

	now func() time.Time

	mu                 sync.Mutex
	modelEventCount    int
	clusterEventCount  int
	lastModelRetrain   time.Time
	lastClusterRetrain time.Time
}

// TriggerOption 调整 Trigger 的阈值配置。
type TriggerOption func(*Trigger)

// WithModelThreshold 设置模型重训的事件阈值与最大间隔。
func WithModelThreshold(events int, maxInterval time.Duration) TriggerOption {
	return func(t *Trigger) {
		if events > 0 {
			t.modelEventThreshold = events
		}
		if maxInterval > 0 {
			t.modelMaxInterval = maxInterval
		}
	}
}

// WithClusterThreshold 设置聚类重训的事件阈值与最大间隔。
func WithClusterThreshold(events int, maxInterval time.Duration) TriggerOption {
	return func(t *Trigger) {
		if events > 0 {
			t.clusterEventThreshold = events
		}
		if maxInterval > 0 {
			t.clusterMaxInterval = maxInterval
		}
	}
}

// WithClock 注入时钟，测试用。
func WithClock(now func() time.Time) TriggerOption {
	return func(t *Trigger) { t.now = now }
}

// NewTrigger 创建触发器。上次重训时间初始化为当前时刻：
// 新进程不会因为"从未重训过"立刻到期（启动时的首轮重训由 Scheduler 负责）。
func NewTrigger(opts ...TriggerOption) *Trigger {
	t := &Trigger{
		modelEventThreshold:   DefaultModelEventThreshold,
		modelMaxInterval:      DefaultModelMaxInterval,
		clusterEventThreshold: DefaultClusterEventThreshold,
		clusterMaxInterval:    DefaultClusterMaxInterval,
		now:                   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	now := t.now()
	t.lastModelRetrain = now
	t.lastClusterRetrain = now
	return t
}

// RecordEvent 记录一个相关事件（click / add_to_cart）。
// 两个计数独立累加，互不影响。
func (t *Trigger) RecordEvent() {
	t.mu.Lock()
	t.modelEventCount++
	t.clusterEventCount++
	t.mu.Unlock()
}

// ShouldRetrainModel 判断模型重训是否到期。
func (t *Trigger) ShouldRetrainModel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.modelEventCount >= t.modelEventThreshold ||
		t.now().Sub(t.lastModelRetrain) >= t.modelMaxInterval
}

// ShouldRetrainClusters 判断聚类重训是否到期。
func (t *Trigger) ShouldRetrainClusters() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clusterEventCount >= t.clusterEventThreshold ||
		t.now().Sub(t.lastClusterRetrain) >= t.clusterMaxInterval
}

// MarkModelRetrained 在模型重训成功后调用：清零计数并刷新时间戳。
func (t *Trigger) MarkModelRetrained() {
	t.mu.Lock()
	t.modelEventCount = 0
	t.lastModelRetrain = t.now()
	t.mu.Unlock()
}

// MarkClustersRetrained 在聚类重训成功后调用：清零计数并刷新时间戳。
func (t *Trigger) MarkClustersRetrained() {
	t.mu.Lock()
	t.clusterEventCount = 0
	t.lastClusterRetrain = t.now()
	t.mu.Unlock()
}

// Status 是触发器状态快照，用于运维观测接口。
type Status struct {
	ModelEventCount    int       `json:"model_event_count"`
	ClusterEventCount  int       `json:"cluster_event_count"`
	LastModelRetrain   time.Time `json:"last_model_retrain"`
	LastClusterRetrain time.Time `json:"last_cluster_retrain"`
	ModelDue           bool      `json:"model_due"`
	ClustersDue        bool      `json:"clusters_due"`
}

// Status 返回当前状态的一致性快照。
func (t *Trigger) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	return Status{
		ModelEventCount:    t.modelEventCount,
		ClusterEventCount:  t.clusterEventCount,
		LastModelRetrain:   t.lastModelRetrain,
		LastClusterRetrain: t.lastClusterRetrain,
		ModelDue: t.modelEventCount >= t.modelEventThreshold ||
			now.Sub(t.lastModelRetrain) >= t.modelMaxInterval,
		ClustersDue: t.clusterEventCount >= t.clusterEventThreshold ||
			now.Sub(t.lastClusterRetrain) >= t.clusterMaxInterval,
	}
}

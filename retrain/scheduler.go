package retrain

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval 是调度器的巡检间隔。
const DefaultPollInterval = time.Minute

// 重训锁名，所有副本、所有任务共用一把锁：任意时刻全系统最多一个重训任务在跑。
// 模型重训与聚类重训都会读写事件与画像数据，必须全局互斥而不是按任务互斥。
const lockRetrain = "retrain_and_cluster"

// Scheduler 在后台按固定间隔巡检 Trigger，到期时在分布式锁保护下
// 执行重训任务。
//
// 行为契约：
//   - Start 先各执行一次模型与聚类重训（冷启动即有模型可用），再进入巡检循环
//   - 两类任务共用一把重训锁，拿不到锁说明别的任务/副本在跑，本轮静默跳过
//   - 任务失败只记日志，计数不清零，下一轮会重试
//   - 两个任务的触发计数互相独立，一个失败不影响另一个
type Scheduler struct {
	Trigger *Trigger
	Locker  Locker
	Logger  *slog.Logger

	// RetrainModel 执行模型重训（训练 + 热加载）
	RetrainModel func(ctx context.Context) error

	// RetrainClusters 执行聚类重训
	RetrainClusters func(ctx context.Context) error

	// Interval 巡检间隔，<=0 时取 DefaultPollInterval
	Interval time.Duration

	// Lease 重训锁租约，<=0 时取 DefaultLockLease
	Lease time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start 启动后台调度循环。重复调用只生效一次。
func (s *Scheduler) Start(ctx context.Context) {
	s.once.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		s.done = make(chan struct{})
		go s.loop(ctx)
	})
}

// Stop 停止调度循环并等待退出。
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// 启动先跑一轮，保证冷启动后尽快有模型与簇分配
	s.runJob(ctx, logger, "model", s.RetrainModel, s.Trigger.MarkModelRetrained)
	s.runJob(ctx, logger, "clusters", s.RetrainClusters, s.Trigger.MarkClustersRetrained)

	interval := s.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Trigger.ShouldRetrainModel() {
				s.runJob(ctx, logger, "model", s.RetrainModel, s.Trigger.MarkModelRetrained)
			}
			if s.Trigger.ShouldRetrainClusters() {
				s.runJob(ctx, logger, "clusters", s.RetrainClusters, s.Trigger.MarkClustersRetrained)
			}
		}
	}
}

// runJob 在锁保护下执行一个重训任务，成功后调用 mark 清零触发计数。
func (s *Scheduler) runJob(
	ctx context.Context,
	logger *slog.Logger,
	name string,
	job func(ctx context.Context) error,
	mark func(),
) {
	if job == nil {
		return
	}

	lease := s.Lease
	if lease <= 0 {
		lease = DefaultLockLease
	}

	if s.Locker != nil {
		ok, err := s.Locker.Acquire(ctx, lockRetrain, lease)
		if err != nil {
			logger.Warn("retrain lock acquire failed", "job", name, "error", err)
			return
		}
		if !ok {
			// 别的任务/副本正在重训
			logger.Debug("retrain lock held elsewhere, skipping", "job", name)
			return
		}
		defer func() {
			if err := s.Locker.Release(ctx, lockRetrain); err != nil {
				logger.Warn("retrain lock release failed", "job", name, "error", err)
			}
		}()
	}

	start := time.Now()
	if err := job(ctx); err != nil {
		// 计数不清零，下一轮巡检重试
		logger.Error("retrain job failed", "job", name, "error", err)
		return
	}
	mark()
	logger.Info("retrain job finished", "job", name, "elapsed", time.Since(start))
}

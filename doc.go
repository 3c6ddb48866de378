// Package shopkit 是一个电商个性化搜索与排序引擎（Shop Ranking Kit）。
//
// 设计要点：
// - Pipeline-first: 检索排序逻辑通过 Node 串联（Recall → Filter → Rank → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 个性化信号（用户画像 / 聚类 boost / 近期行为）失败时降级为零值，搜索永不因此报错
// - 离线任务（模型重训 / 用户聚类）由 retrain.Scheduler 统一调度，全局互斥
package shopkit

import "github.com/rushteam/shopkit/pipeline"

// 轻量 facade：便于用户直接 import "shopkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

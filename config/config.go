// Package config 提供引擎的 YAML 配置加载与默认值。
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是引擎的全量配置。所有字段都有可用的默认值，
// 配置文件只需要覆盖想改的部分。
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Rank    RankConfig    `yaml:"rank"`
	Profile ProfileConfig `yaml:"profile"`
	Cluster ClusterConfig `yaml:"cluster"`
	Retrain RetrainConfig `yaml:"retrain"`
	Redis   RedisConfig   `yaml:"redis"`
}

// SearchConfig 是检索链路配置。
type SearchConfig struct {
	// FuzzyThreshold 模糊匹配的 token 相似度阈值
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`

	// FallbackMinResults 候选少于该值时触发类目兜底召回
	FallbackMinResults int `yaml:"fallback_min_results"`

	// Limit 默认返回结果数
	Limit int `yaml:"limit"`

	// ResultCacheTTL 搜索结果缓存时长
	ResultCacheTTL time.Duration `yaml:"result_cache_ttl"`
}

// RankConfig 是排序配置。
type RankConfig struct {
	// ClusterWeight 簇级类目权重系数
	ClusterWeight float64 `yaml:"cluster_weight"`

	// RecencyBase 近期交互加分的基准值（最近一个商品）
	RecencyBase float64 `yaml:"recency_base"`

	// RecencyDecay 近期交互加分的逐位衰减
	RecencyDecay float64 `yaml:"recency_decay"`

	// RecencyTopK 参与加分的近期商品数
	RecencyTopK int `yaml:"recency_top_k"`

	// MaxPerCategory 推荐结果每个类目的最大数量
	MaxPerCategory int `yaml:"max_per_category"`
}

// ProfileConfig 是画像配置。
type ProfileConfig struct {
	// RefreshInterval 画像缓存的整体刷新周期
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// Window 画像聚合的事件时间窗口
	Window time.Duration `yaml:"window"`

	// ClusterBoostTTL 簇级类目权重的缓存时长
	ClusterBoostTTL time.Duration `yaml:"cluster_boost_ttl"`
}

// ClusterConfig 是聚类配置。
type ClusterConfig struct {
	// Clusters 目标簇数
	Clusters int `yaml:"clusters"`

	// MaxIterations k-means 最大迭代轮数
	MaxIterations int `yaml:"max_iterations"`
}

// RetrainConfig 是重训触发配置。
type RetrainConfig struct {
	ModelEventThreshold   int           `yaml:"model_event_threshold"`
	ModelMaxInterval      time.Duration `yaml:"model_max_interval"`
	ClusterEventThreshold int           `yaml:"cluster_event_threshold"`
	ClusterMaxInterval    time.Duration `yaml:"cluster_max_interval"`
	PollInterval          time.Duration `yaml:"poll_interval"`
	LockLease             time.Duration `yaml:"lock_lease"`
}

// RedisConfig 是可选的 Redis 后端配置，Addr 为空表示纯内存运行。
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// Default 返回全部默认值的配置。
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			FuzzyThreshold:     0.7,
			FallbackMinResults: 5,
			Limit:              10,
			ResultCacheTTL:     5 * time.Minute,
		},
		Rank: RankConfig{
			ClusterWeight:  0.5,
			RecencyBase:    1.0,
			RecencyDecay:   0.15,
			RecencyTopK:    5,
			MaxPerCategory: 3,
		},
		Profile: ProfileConfig{
			RefreshInterval: 5 * time.Minute,
			Window:          30 * 24 * time.Hour,
			ClusterBoostTTL: time.Hour,
		},
		Cluster: ClusterConfig{
			Clusters:      3,
			MaxIterations: 100,
		},
		Retrain: RetrainConfig{
			ModelEventThreshold:   100,
			ModelMaxInterval:      6 * time.Hour,
			ClusterEventThreshold: 200,
			ClusterMaxInterval:    24 * time.Hour,
			PollInterval:          time.Minute,
			LockLease:             time.Hour,
		},
	}
}

// Load 读取 YAML 配置文件，未设置的字段保持默认值。
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置的合法性。
func (c *Config) Validate() error {
	if c.Search.FuzzyThreshold <= 0 || c.Search.FuzzyThreshold > 1 {
		return fmt.Errorf("config: fuzzy_threshold must be in (0, 1], got %v", c.Search.FuzzyThreshold)
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("config: limit must be positive, got %d", c.Search.Limit)
	}
	if c.Cluster.Clusters <= 0 {
		return fmt.Errorf("config: clusters must be positive, got %d", c.Cluster.Clusters)
	}
	if c.Retrain.ModelEventThreshold <= 0 || c.Retrain.ClusterEventThreshold <= 0 {
		return fmt.Errorf("config: retrain event thresholds must be positive")
	}
	return nil
}

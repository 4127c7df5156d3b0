// Package config 提供 moviematch 的 YAML 配置加载与默认值填充。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/moviematch/core"
	"github.com/rushteam/moviematch/rerank"
)

// Config 是引擎的顶层配置。
//
// 示例（yaml）：
//
//	store:
//	  type: redis
//	  addr: localhost:6379
//	  db: 0
//	engine:
//	  batch_size: 20
//	  max_candidates: 1000
//	  recent_window: 50
//	  min_rating: 6.0
//	  min_year: 1990
//	  rank_parallelism: 4
//	rules:
//	  - '!("Horror" in movie.genres)'
//	feature:
//	  enabled: true
//	  host: localhost
//	  port: 6565
//	  project: moviematch
//	  features:
//	    - movie_stats:popularity
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Engine  EngineConfig  `yaml:"engine"`
	Rules   []string      `yaml:"rules"`
	Feature FeatureConfig `yaml:"feature"`
}

// StoreConfig 存储后端配置。
type StoreConfig struct {
	// Type 后端类型：memory / redis
	Type string `yaml:"type"`

	// Addr Redis 地址（Type 为 redis 时必填）
	Addr string `yaml:"addr"`

	// DB Redis 库号
	DB int `yaml:"db"`
}

// EngineConfig 推荐引擎参数。
type EngineConfig struct {
	// BatchSize 默认批次大小
	BatchSize int `yaml:"batch_size"`

	// MaxCandidates 候选集上限
	MaxCandidates int `yaml:"max_candidates"`

	// RecentWindow 候选排除的回看窗口
	RecentWindow int `yaml:"recent_window"`

	// MinRating / MinYear 候选质量下限
	MinRating float64 `yaml:"min_rating"`
	MinYear   int     `yaml:"min_year"`

	// RankParallelism 打分并发度；<= 1 串行
	RankParallelism int `yaml:"rank_parallelism"`
}

// FeatureConfig 在线特征服务（Feast）配置。
type FeatureConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Project  string   `yaml:"project"`
	Features []string `yaml:"features"`
}

// Default 返回带默认值的配置（内存存储）。
func Default() *Config {
	cfg := &Config{}
	cfg.normalize()
	return cfg
}

// Load 从 YAML 文件加载配置并填充默认值。
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return LoadBytes(raw)
}

// LoadBytes 从 YAML 字节串加载配置并填充默认值。
func LoadBytes(raw []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Engine.BatchSize <= 0 {
		c.Engine.BatchSize = rerank.DefaultBatchSize
	}
	if c.Engine.MaxCandidates <= 0 {
		c.Engine.MaxCandidates = core.DefaultCandidateCap
	}
	if c.Engine.RecentWindow <= 0 {
		c.Engine.RecentWindow = core.RecentFeedbackWindow
	}
	if c.Engine.MinRating <= 0 {
		c.Engine.MinRating = core.DefaultMinRating
	}
	if c.Engine.MinYear <= 0 {
		c.Engine.MinYear = core.DefaultMinYear
	}
	if c.Feature.Port == 0 {
		c.Feature.Port = 6565
	}
}

// Validate 校验配置的组合合法性。
func (c *Config) Validate() error {
	switch c.Store.Type {
	case "memory":
	case "redis":
		if c.Store.Addr == "" {
			return fmt.Errorf("config: store.addr is required for redis")
		}
	default:
		return fmt.Errorf("config: unknown store type %q", c.Store.Type)
	}
	if c.Feature.Enabled && c.Feature.Host == "" {
		return fmt.Errorf("config: feature.host is required when feature.enabled")
	}
	return nil
}

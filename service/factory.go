package service

import (
	"fmt"
	"io"

	"github.com/rushteam/moviematch/config"
	"github.com/rushteam/moviematch/feature"
	"github.com/rushteam/moviematch/store"
)

// Engine 把 MatchingService 和它持有的外部连接绑在一起，
// 调用方用完负责 Close。
type Engine struct {
	*MatchingService

	// Movies 目录写入口（导入影片数据用）
	Movies *store.CatalogRepo

	closers []io.Closer
}

// Close 依次释放存储与特征服务连接。
func (e *Engine) Close() error {
	var first error
	for _, c := range e.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewEngine 按配置组装完整引擎：存储后端、领域仓储、特征客户端、服务门面。
func NewEngine(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{}

	var backend store.Backend
	switch cfg.Store.Type {
	case "redis":
		rs, err := store.NewRedisStore(cfg.Store.Addr, cfg.Store.DB)
		if err != nil {
			return nil, fmt.Errorf("service: init redis store: %w", err)
		}
		e.closers = append(e.closers, rs)
		backend = rs
	default:
		ms := store.NewMemoryStore()
		e.closers = append(e.closers, ms)
		backend = ms
	}

	catalog := store.NewCatalogRepo(backend)
	e.Movies = catalog

	svc := &MatchingService{
		Preferences:   store.NewPreferenceRepo(backend),
		Sessions:      store.NewSessionRepo(backend),
		Feedback:      store.NewFeedbackRepo(backend),
		Catalog:       catalog,
		BatchSize:     cfg.Engine.BatchSize,
		MaxCandidates: cfg.Engine.MaxCandidates,
		RecentWindow:  cfg.Engine.RecentWindow,
		MinRating:     cfg.Engine.MinRating,
		MinYear:       cfg.Engine.MinYear,
		Rules:         cfg.Rules,

		RankParallelism: cfg.Engine.RankParallelism,
	}

	if cfg.Feature.Enabled {
		fc, err := feature.NewFeastClient(cfg.Feature.Host, cfg.Feature.Port, cfg.Feature.Project)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("service: init feast client: %w", err)
		}
		e.closers = append(e.closers, fc)
		svc.Enrich = &feature.EnrichNode{
			Client:   fc,
			Features: cfg.Feature.Features,
		}
	}

	e.MatchingService = svc
	return e, nil
}

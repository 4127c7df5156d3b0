package feature

import (
	"context"

	"github.com/rushteam/moviematch/core"
	"github.com/rushteam/moviematch/pipeline"
	"github.com/rushteam/moviematch/pkg/conv"
	"github.com/rushteam/moviematch/pkg/utils"
)

// EnrichNode 是特征注入节点：按候选影片批量拉取在线特征，
// 写入 item.Features。特征只服务于解释工具与规则过滤，
// 不参与混合打分公式（打分公式见 rank.Hybrid）。
//
// 特征服务不可用时整批跳过注入（降级，不中断推荐链路）。
type EnrichNode struct {
	// Client 在线特征客户端（Feast 或自定义实现）
	Client Client

	// Features 要拉取的特征名称列表，例如
	// ["movie_stats:popularity", "movie_stats:impressions_7d"]
	Features []string

	// EntityKey 实体 key 名称，默认 "movie_id"
	EntityKey string
}

func (n *EnrichNode) Name() string        { return "feature.enrich" }
func (n *EnrichNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *EnrichNode) Process(
	ctx context.Context,
	_ *core.MatchContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Client == nil || len(n.Features) == 0 || len(items) == 0 {
		return items, nil
	}

	entityKey := n.EntityKey
	if entityKey == "" {
		entityKey = "movie_id"
	}

	entityRows := make([]map[string]interface{}, 0, len(items))
	rowItems := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil || it.Movie == nil {
			continue
		}
		entityRows = append(entityRows, map[string]interface{}{entityKey: it.Movie.ID})
		rowItems = append(rowItems, it)
	}
	if len(entityRows) == 0 {
		return items, nil
	}

	resp, err := n.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   n.Features,
		EntityRows: entityRows,
	})
	if err != nil {
		// 特征服务故障：跳过注入，保持候选集完整
		return items, nil
	}
	if len(resp.FeatureVectors) != len(rowItems) {
		return items, nil
	}

	for i, fv := range resp.FeatureVectors {
		it := rowItems[i]
		for name, val := range fv.Values {
			if f, ok := conv.ToFloat64(val); ok {
				if it.Features == nil {
					it.Features = make(map[string]float64)
				}
				it.Features[name] = f
			}
		}
		it.PutLabel("feature_enriched", utils.Label{Value: "true", Source: "feature"})
	}

	return items, nil
}

var _ pipeline.Node = (*EnrichNode)(nil)

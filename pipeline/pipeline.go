package pipeline

import (
	"context"

	"github.com/rushteam/moviematch/core"
)

// Pipeline 是 moviematch 的核心抽象：把推荐逻辑拆成可组合的 Node 链。
// 一次 get_recommendations = 候选召回 → 过滤 → 混合打分 → 多样性选择。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	mctx *core.MatchContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, mctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

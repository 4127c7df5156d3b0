package recall

import (
	"context"

	"github.com/rushteam/moviematch/core"
	"github.com/rushteam/moviematch/pipeline"
	"github.com/rushteam/moviematch/pkg/utils"
)

// CandidatePool 是双人匹配的候选召回 Node。
//
// 策略：
//   - 排除请求用户在本会话内最近 RecentWindow 条反馈涉及的影片
//     （近期窗口，不是全局历史；另一位用户看过的影片不要求排除）
//   - 质量下限：rating ≥ MinRating、release_year ≥ MinYear、必须有嵌入
//   - 候选集上限 MaxCandidates，控制打分成本
//
// 候选生成是确定性的：给定目录状态与排除集，输出顺序稳定；
// 随机性只在选择阶段（rerank.DiversitySelector）引入。
type CandidatePool struct {
	Catalog  core.MovieCatalog
	Feedback core.FeedbackStore

	// RecentWindow 回看窗口大小，默认 core.RecentFeedbackWindow（50）
	RecentWindow int

	// MaxCandidates 候选集上限，默认 core.DefaultCandidateCap（1000）
	MaxCandidates int

	// MinRating / MinYear 质量下限，零值时取 core 默认
	MinRating float64
	MinYear   int
}

func (n *CandidatePool) Name() string        { return "recall.candidate_pool" }
func (n *CandidatePool) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *CandidatePool) Process(
	ctx context.Context,
	mctx *core.MatchContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if n.Catalog == nil || mctx == nil || mctx.Session == nil {
		return nil, nil
	}

	excluded, err := n.recentMovieIDs(ctx, mctx)
	if err != nil {
		return nil, err
	}

	filter := core.DefaultCandidateFilter(excluded)
	if n.MinRating > 0 {
		filter.MinRating = n.MinRating
	}
	if n.MinYear > 0 {
		filter.MinYear = n.MinYear
	}
	if n.MaxCandidates > 0 {
		filter.Limit = n.MaxCandidates
	}

	movies, err := n.Catalog.QueryCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(movies))
	for _, m := range movies {
		if m == nil {
			continue
		}
		it := core.NewItem(m)
		it.PutLabel("recall_source", utils.Label{Value: "candidate_pool", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// recentMovieIDs 收集请求用户在本会话内最近反馈过的影片 ID。
func (n *CandidatePool) recentMovieIDs(ctx context.Context, mctx *core.MatchContext) (map[int64]struct{}, error) {
	if n.Feedback == nil || mctx.UserID == "" {
		return nil, nil
	}

	window := n.RecentWindow
	if window <= 0 {
		window = core.RecentFeedbackWindow
	}

	events, err := n.Feedback.Recent(ctx, mctx.Session.ID, mctx.UserID, window)
	if err != nil {
		return nil, err
	}

	ids := make(map[int64]struct{}, len(events))
	for _, ev := range events {
		ids[ev.MovieID] = struct{}{}
	}
	return ids, nil
}

var _ pipeline.Node = (*CandidatePool)(nil)

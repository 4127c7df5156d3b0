package filter

import (
	"context"

	"github.com/rushteam/moviematch/core"
	"github.com/rushteam/moviematch/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的准入过滤器。
// Expr 是一条“准入规则”：表达式为 true 的影片保留，为 false 的被过滤。
//
// 典型用法是在候选召回之后补充业务准入门槛，例如：
//   - movie.rating >= 6.0 && movie.release_year >= 1990
//   - !("Horror" in movie.genres)
//   - mctx.stage == "convergence" ? movie.rating >= 7.0 : true
//
// 表达式求值失败时保留该影片（过滤器错误不应吞掉候选）。
type RuleFilter struct {
	Expr string
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	mctx *core.MatchContext,
	item *core.Item,
) (bool, error) {
	if f.Expr == "" || item == nil {
		return false, nil
	}

	ok, err := dsl.NewEval(item, mctx).Evaluate(f.Expr)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

var _ Filter = (*RuleFilter)(nil)

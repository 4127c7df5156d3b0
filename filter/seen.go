package filter

import (
	"context"
	"sync"

	"github.com/rushteam/moviematch/core"
)

// SeenFilter 过滤请求用户在本会话内近期反馈过的影片。
//
// 标准链路里这层排除由 recall.CandidatePool 在目录查询时下推完成；
// SeenFilter 服务于目录无法下推排除条件的管线（例如候选来自外部召回源），
// 作为独立过滤器补上同样的回看窗口语义。
//
// 每个请求构造一个实例：排除集在首次调用时加载一次并缓存，
// 后续逐 item 判断是纯内存查找。
type SeenFilter struct {
	Feedback core.FeedbackStore

	// Window 回看窗口大小，默认 core.RecentFeedbackWindow（50）
	Window int

	once sync.Once
	seen map[int64]struct{}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	mctx *core.MatchContext,
	item *core.Item,
) (bool, error) {
	if f.Feedback == nil || item == nil || item.Movie == nil {
		return false, nil
	}
	if mctx == nil || mctx.Session == nil || mctx.UserID == "" {
		return false, nil
	}

	var loadErr error
	f.once.Do(func() {
		window := f.Window
		if window <= 0 {
			window = core.RecentFeedbackWindow
		}
		events, err := f.Feedback.Recent(ctx, mctx.Session.ID, mctx.UserID, window)
		if err != nil {
			loadErr = err
			return
		}
		f.seen = make(map[int64]struct{}, len(events))
		for _, ev := range events {
			f.seen[ev.MovieID] = struct{}{}
		}
	})
	if loadErr != nil {
		return false, loadErr
	}

	_, ok := f.seen[item.Movie.ID]
	return ok, nil
}

var _ Filter = (*SeenFilter)(nil)

package core

import "github.com/rushteam/moviematch/pkg/utils"

// MatchContext 承载一次推荐/反馈请求的会话与双人画像快照，贯穿整个 Pipeline 透传。
//
// 快照语义：Pipeline 内的打分与选择是纯 CPU 计算，不回读存储；
// 两位用户的画像在入口处一次性加载，链路中只读。
type MatchContext struct {
	// Session 当前匹配会话
	Session *MatchingSession

	// UserID 发起请求的用户（候选集按此用户的最近反馈做排除）
	UserID string

	// User1Prefs / User2Prefs 两位用户的画像快照。
	// 冷启动用户允许为 nil，所有打分路径都必须给出中性降级值。
	User1Prefs *UserPreference
	User2Prefs *UserPreference

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（batch_size 等）
	Params map[string]any
}

// StageParams 返回当前会话阶段的参数束。
func (mctx *MatchContext) StageParams() StageParams {
	if mctx.Session == nil {
		return StageParamsFor(0)
	}
	return StageParamsFor(mctx.Session.Interactions)
}

// PutLabel 写入请求级 Label。
func (mctx *MatchContext) PutLabel(key string, lbl utils.Label) {
	if mctx.Labels == nil {
		mctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := mctx.Labels[key]; ok {
		mctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	mctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (mctx *MatchContext) GetLabel(key string) (utils.Label, bool) {
	if mctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := mctx.Labels[key]
	return lbl, ok
}

package core

import (
	"fmt"
	"time"
)

// FeedbackType 是用户对一部影片的反馈类型。
type FeedbackType string

const (
	FeedbackLike    FeedbackType = "like"
	FeedbackDislike FeedbackType = "dislike"
	FeedbackSkip    FeedbackType = "skip"
)

// ParseFeedbackType 校验并解析反馈类型。
// 未知类型返回 INVALID_INPUT 错误，且必须在任何状态变更之前完成校验。
func ParseFeedbackType(s string) (FeedbackType, error) {
	switch FeedbackType(s) {
	case FeedbackLike, FeedbackDislike, FeedbackSkip:
		return FeedbackType(s), nil
	default:
		return "", NewDomainError(ModuleFeedback, ErrorCodeInvalidInput,
			fmt.Sprintf("feedback: invalid type %q (must be like/dislike/skip)", s))
	}
}

// Target 返回该反馈对应的类型权重学习目标：like→1.0，dislike→0.0，skip→0.5。
// skip 的目标恰好等于中性默认值，期望意义上是 no-op，
// 但仍会把已经漂移的权重往回拉。
func (t FeedbackType) Target() float64 {
	switch t {
	case FeedbackLike:
		return 1.0
	case FeedbackDislike:
		return 0.0
	default:
		return DefaultGenreWeight
	}
}

// FeedbackEvent 是一条只追加的反馈事实，落库后不可变。
// 既用于状态更新，也用于候选集生成时排除最近展示过的影片
// （回看窗口：该用户在该会话内最近 50 条）。
type FeedbackEvent struct {
	SessionID   string       `json:"session_id"`
	UserID      string       `json:"user_id"`
	MovieID     int64        `json:"movie_id"`
	Type        FeedbackType `json:"type"`
	TimeSpentMS int64        `json:"time_spent_ms,omitempty"` // 卡片停留时长，可选
	Timestamp   time.Time    `json:"timestamp"`
}

// RecentFeedbackWindow 是候选集排除的回看窗口大小。
const RecentFeedbackWindow = 50

// FeedbackCounts 是单个用户在一个会话内的反馈统计。
type FeedbackCounts struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
	Skips    int `json:"skips"`
}

// Add 将一条反馈计入统计。
func (c *FeedbackCounts) Add(t FeedbackType) {
	switch t {
	case FeedbackLike:
		c.Likes++
	case FeedbackDislike:
		c.Dislikes++
	default:
		c.Skips++
	}
}

// Package feedback 实现反馈处理编排：事件落库、画像更新、会话状态推进。
package feedback

import (
	"context"
	"time"

	"github.com/rushteam/moviematch/core"
	"github.com/rushteam/moviematch/learn"
)

// Processor 编排一次反馈事件的完整处理：
//
//  1. 校验反馈类型（未知类型在任何状态变更前拒绝）
//  2. 追加 FeedbackEvent（必须先落，即使后面影片查不到）
//  3. 解析影片；不存在 → 静默降级为“只记事件、不学习”
//  4. 原子更新该用户的画像（learn.Apply）
//  5. 原子更新会话：interactions+1；like 且对方此前已 like 同一部 →
//     mutual_likes+1（回溯判定，只在后点的那次反馈上加一次）；
//     stage 由新交互数重新派生
//
// 一次反馈要么完整生效（事件 + 学习 + 会话），要么完整降级为只记事件，
// 不会出现“偏好更新了但事件没记”的半状态。
type Processor struct {
	Preferences core.PreferenceStore
	Sessions    core.SessionStore
	Feedback    core.FeedbackStore
	Catalog     core.MovieCatalog

	// Now 时间源，测试可注入；为 nil 时用 time.Now
	Now func() time.Time
}

// Process 处理一条反馈。fbType 未知时返回 INVALID_INPUT 且不产生任何写入。
func (p *Processor) Process(
	ctx context.Context,
	sessionID, userID string,
	movieID int64,
	fbType string,
	timeSpentMS int64,
) error {
	t, err := core.ParseFeedbackType(fbType)
	if err != nil {
		return err
	}

	ev := &core.FeedbackEvent{
		SessionID:   sessionID,
		UserID:      userID,
		MovieID:     movieID,
		Type:        t,
		TimeSpentMS: timeSpentMS,
		Timestamp:   p.now(),
	}
	if err := p.Feedback.Append(ctx, ev); err != nil {
		return err
	}

	movie, err := p.Catalog.GetMovie(ctx, movieID)
	if err != nil {
		if core.IsNotFound(err) {
			// 影片已下架/删除：事件保留，学习与会话更新静默跳过
			return nil
		}
		return err
	}

	if _, err := p.Preferences.Update(ctx, userID, func(pref *core.UserPreference) error {
		learn.Apply(pref, movie, t)
		return nil
	}); err != nil {
		return err
	}

	return p.updateSession(ctx, sessionID, userID, movieID, t)
}

func (p *Processor) updateSession(
	ctx context.Context,
	sessionID, userID string,
	movieID int64,
	t core.FeedbackType,
) error {
	session, err := p.Sessions.Get(ctx, sessionID)
	if err != nil {
		if core.IsNotFound(err) {
			// 会话不在了：事件与画像更新已生效，会话推进跳过
			return nil
		}
		return err
	}

	// 互相喜欢：对方此前是否对同一部影片点过 like。
	// 在会话原子更新之外查询，避免把存储读放进重试闭包。
	mutual := false
	if t == core.FeedbackLike {
		if other := session.OtherUser(userID); other != "" {
			mutual, err = p.Feedback.HasFeedback(ctx, sessionID, other, movieID, core.FeedbackLike)
			if err != nil {
				return err
			}
		}
	}

	_, err = p.Sessions.Update(ctx, sessionID, func(s *core.MatchingSession) error {
		s.Interactions++
		if mutual {
			s.MutualLikes++
		}
		s.UpdatedAt = p.now()
		return nil
	})
	return err
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

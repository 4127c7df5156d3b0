package core

import "context"

// PreferenceStore 是用户画像的存储接口。
//
// Update 必须是按 user_id 的原子读-改-写：学习率依赖累计交互数，
// 两个并发反馈（例如同一用户同时在两个会话里）交错读写会静默丢失
// 其中一次更新的效果。不同用户之间无需互斥。
type PreferenceStore interface {
	// Get 读取画像；不存在返回 ErrPreferenceNotFound（调用方按冷启动处理）
	Get(ctx context.Context, userID string) (*UserPreference, error)

	// Update 原子地读-改-写画像；画像不存在时以 NewUserPreference 兜底后再应用 fn。
	// fn 返回错误时放弃写入并透传。返回更新后的画像。
	Update(ctx context.Context, userID string, fn func(p *UserPreference) error) (*UserPreference, error)
}

// SessionStore 是匹配会话的存储接口。Update 语义与 PreferenceStore 相同，
// 原子粒度是 session_id。
type SessionStore interface {
	// Create 写入新会话
	Create(ctx context.Context, s *MatchingSession) error

	// Get 读取会话；不存在返回 ErrSessionNotFound
	Get(ctx context.Context, sessionID string) (*MatchingSession, error)

	// Update 原子地读-改-写会话；会话不存在返回 ErrSessionNotFound。
	// 返回更新后的会话。
	Update(ctx context.Context, sessionID string, fn func(s *MatchingSession) error) (*MatchingSession, error)
}

// FeedbackStore 是反馈事件的存储接口（只追加）。
type FeedbackStore interface {
	// Append 追加一条反馈事件
	Append(ctx context.Context, ev *FeedbackEvent) error

	// Recent 返回某用户在某会话内最近的 limit 条反馈，按时间倒序
	Recent(ctx context.Context, sessionID, userID string, limit int) ([]*FeedbackEvent, error)

	// HasFeedback 判断某用户是否对某影片留下过指定类型的反馈（互相喜欢回溯判定用）
	HasFeedback(ctx context.Context, sessionID, userID string, movieID int64, t FeedbackType) (bool, error)

	// Stats 返回会话内按用户分组的反馈统计
	Stats(ctx context.Context, sessionID string, userIDs ...string) (map[string]*FeedbackCounts, error)
}

var (
	// ErrPreferenceNotFound 表示画像行不存在（bootstrap 场景，不是故障）
	ErrPreferenceNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: user preference not found")

	// ErrSessionNotFound 表示会话不存在
	ErrSessionNotFound = NewDomainError(ModuleSession, ErrorCodeNotFound, "session: not found")
)

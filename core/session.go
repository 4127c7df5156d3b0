package core

import "time"

// Stage 是匹配会话所处的学习阶段，由会话累计交互数派生。
type Stage string

const (
	StageExploration Stage = "exploration" // 交互数 ≤ 10：广撒网摸底口味
	StageLearning    Stage = "learning"    // 交互数 11–30：偏好信号逐步接管
	StageConvergence Stage = "convergence" // 交互数 > 30：语义相似度主导收敛
)

// 阶段切换阈值。Stage 永远由交互数派生，不允许独立写入。
const (
	ExplorationStageLimit = 10
	LearningStageLimit    = 30
)

// StageFor 返回交互数对应的阶段，是一个确定的阶梯函数。
func StageFor(interactions int) Stage {
	switch {
	case interactions <= ExplorationStageLimit:
		return StageExploration
	case interactions <= LearningStageLimit:
		return StageLearning
	default:
		return StageConvergence
	}
}

// MatchingSession 是两个用户共同持有的匹配会话。
//
// Interactions 是会话内计数（两人的反馈都计入），与每个用户个人的
// UserPreference.Interactions 相互独立。
// MutualLikes 统计两人都点了 like 的影片数，在后点的那次反馈上回溯判定。
//
// 生命周期：每次配对创建一次；每个反馈事件都会修改它；
// 本引擎不负责删除（删除是协作方的事）。
// 只允许通过原子读-改-写修改（见 core.AtomicStore）。
type MatchingSession struct {
	ID           string    `json:"id"`
	User1ID      string    `json:"user1_id"`
	User2ID      string    `json:"user2_id"`
	Interactions int       `json:"interactions"`
	MutualLikes  int       `json:"mutual_likes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Stage 返回当前阶段（派生值，永不落库）。
func (s *MatchingSession) Stage() Stage {
	return StageFor(s.Interactions)
}

// OtherUser 返回会话中另一位用户的 ID；userID 不属于本会话时返回空串。
func (s *MatchingSession) OtherUser(userID string) string {
	switch userID {
	case s.User1ID:
		return s.User2ID
	case s.User2ID:
		return s.User1ID
	default:
		return ""
	}
}

// HasUser 判断 userID 是否是本会话的参与者。
func (s *MatchingSession) HasUser(userID string) bool {
	return userID == s.User1ID || userID == s.User2ID
}

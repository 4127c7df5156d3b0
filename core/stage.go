package core

import "math"

// 学习率调度常量。
const (
	InitialLearningRate      = 0.3  // 初始学习率
	SessionLearningRateFloor = 0.1  // 会话级学习率下限（仅用于阶段元数据上报）
	UserLearningRateFloor    = 0.05 // 用户级学习率下限（实际偏好更新使用）
	LearningRateDecay        = 0.9  // 每 10 次交互衰减一档
)

// StageParams 是某阶段下的算法参数束：打分权重、探索率、学习率。
type StageParams struct {
	Stage           Stage   `json:"stage"`
	GenreWeight     float64 `json:"genre_weight"`     // 类型兼容分在总分中的权重
	EmbeddingWeight float64 `json:"embedding_weight"` // 语义相似分在总分中的权重
	DiversityWeight float64 `json:"diversity_weight"`
	ExplorationRate float64 `json:"exploration_rate"` // 批次中随机探索槽位的比例
	LearningRate    float64 `json:"learning_rate"`    // 会话级学习率（见下）
}

// StageParamsFor 返回会话交互数对应的参数束，是一个纯函数。
//
// 注意：这里的 LearningRate 基于会话交互数、下限 0.1，只作为阶段元数据
// 上报（解释工具等外部调用方依赖这个数值）；真正驱动偏好更新的是
// UserLearningRate，基于该用户个人的交互数、下限 0.05。
// 这个不对称是有意的：一个用户的口味更新速度取决于我们对「他本人」
// 了解多少，而不是这对用户的共同历史有多长。
func StageParamsFor(interactions int) StageParams {
	p := StageParams{
		Stage:           StageFor(interactions),
		DiversityWeight: 0.1,
		LearningRate: math.Max(
			SessionLearningRateFloor,
			InitialLearningRate*math.Pow(LearningRateDecay, float64(interactions)/10),
		),
	}

	switch p.Stage {
	case StageExploration:
		p.GenreWeight = 0.7
		p.EmbeddingWeight = 0.2
		p.ExplorationRate = 0.4
	case StageLearning:
		p.GenreWeight = 0.5
		p.EmbeddingWeight = 0.4
		p.ExplorationRate = 0.3
	default: // StageConvergence
		p.GenreWeight = 0.3
		p.EmbeddingWeight = 0.6
		p.ExplorationRate = 0.2
	}
	return p
}

// UserLearningRate 返回用户级学习率：max(0.05, 0.3 × 0.9^(interactions/10))。
// 几何衰减让早期反馈快速塑形，后期反馈只做温和修正。
func UserLearningRate(interactions int) float64 {
	return math.Max(
		UserLearningRateFloor,
		InitialLearningRate*math.Pow(LearningRateDecay, float64(interactions)/10),
	)
}

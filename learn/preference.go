// Package learn 实现单用户口味画像的在线更新规则。
//
// 更新是非交换的（学习率依赖累计交互数），调用方必须保证同一用户的
// 更新按到达顺序、以原子读-改-写的方式执行（见 core.PreferenceStore）。
package learn

import (
	"github.com/rushteam/moviematch/core"
	"github.com/rushteam/moviematch/pkg/vectormath"
)

// Apply 根据一条反馈就地更新画像：
//
//  1. 学习率 = max(0.05, 0.3 × 0.9^(个人交互数/10))：几何衰减，
//     早期反馈快速塑形，后期反馈温和修正
//  2. 类型权重：对影片每个类型 g，weight[g] += lr × (target − weight[g])
//     （向目标的指数滑动平均；target 见 FeedbackType.Target）
//  3. 嵌入向量（仅当影片有嵌入）：
//     - 尚无偏好向量 → 以影片嵌入原样初始化（bootstrap）
//     - like    → 向影片移动：v += lr × (m − v)
//     - dislike → 反向移动，力度减半：v −= 0.5·lr × (m − v)
//     - skip    → 不动
//  4. 交互数 +1；confidence = min(1, 交互数/20)
func Apply(pref *core.UserPreference, movie *core.Movie, t core.FeedbackType) {
	if pref == nil || movie == nil {
		return
	}

	lr := core.UserLearningRate(pref.Interactions)

	target := t.Target()
	for _, g := range movie.Genres {
		cur := pref.GenreWeights.Get(g)
		pref.GenreWeights.Set(g, cur+lr*(target-cur))
	}

	if movie.HasEmbedding() {
		switch {
		case !pref.HasEmbedding():
			pref.Embedding = vectormath.Copy(movie.Embedding)
		case t == core.FeedbackLike:
			pref.Embedding = vectormath.MoveToward(pref.Embedding, movie.Embedding, lr)
		case t == core.FeedbackDislike:
			pref.Embedding = vectormath.MoveToward(pref.Embedding, movie.Embedding, -0.5*lr)
		}
	}

	pref.Interactions++
	pref.Confidence = confidence(pref.Interactions)
}

// confidence 随交互数线性爬升，20 次反馈后饱和在 1.0。
func confidence(interactions int) float64 {
	c := float64(interactions) / 20.0
	if c > 1 {
		return 1
	}
	return c
}

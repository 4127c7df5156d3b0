package rank

import (
	"context"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/moviematch/core"
	"github.com/rushteam/moviematch/pipeline"
	"github.com/rushteam/moviematch/pkg/utils"
	"github.com/rushteam/moviematch/pkg/vectormath"
)

// Hybrid 是双人混合打分 Node：类型兼容 + 语义相似，两路信号都用
// “保守满足”规则融合两位用户的分数：
//
//	combined = 0.7 × min(u1, u2) + 0.3 × mean(u1, u2)
//
// min 项占大头，建模“两个人都得能接受”；mean 项防止一方还没有信号时
// 分数塌缩到零。
//
// 总分 = stage.genre_weight × 类型分 + stage.embedding_weight × 语义分，
// 再乘可信度系数 0.7 + 0.3 × mean(confidence)（范围 [0.7, 1.0]）：
// 对两位用户口味还不确定时压低分数，但永远不清零。
//
// 打分是纯 CPU 计算，不做 I/O；输出按总分降序、稳定排序。
// 写入 labels：genre_score / embedding_score / stage，供解释工具消费。
type Hybrid struct {
	// Parallelism 打分并发度。候选集上限 1000，单核打分已经很快，
	// 但协作方要求整个打分可被超时约束，分片并发让 ctx 取消更及时。
	// <= 1 时串行。
	Parallelism int
}

func (n *Hybrid) Name() string        { return "rank.hybrid" }
func (n *Hybrid) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Hybrid) Process(
	ctx context.Context,
	mctx *core.MatchContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if mctx == nil || len(items) == 0 {
		return items, nil
	}

	params := mctx.StageParams()
	multiplier := ConfidenceMultiplier(
		mctx.User1Prefs.ConfidenceOf(),
		mctx.User2Prefs.ConfidenceOf(),
	)

	if n.Parallelism > 1 {
		if err := n.scoreParallel(ctx, mctx, items, params, multiplier); err != nil {
			return nil, err
		}
	} else {
		for _, it := range items {
			n.scoreItem(mctx, it, params, multiplier)
		}
	}

	// 稳定排序：同分影片保持输入顺序，保证确定性
	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

// scoreParallel 用 errgroup 分片并发打分。打分互不依赖，按索引分片无须加锁。
func (n *Hybrid) scoreParallel(
	ctx context.Context,
	mctx *core.MatchContext,
	items []*core.Item,
	params core.StageParams,
	multiplier float64,
) error {
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(n.Parallelism)

	chunk := (len(items) + n.Parallelism - 1) / n.Parallelism
	for start := 0; start < len(items); start += chunk {
		end := start + chunk
		if end > len(items) {
			end = len(items)
		}
		part := items[start:end]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, it := range part {
				n.scoreItem(mctx, it, params, multiplier)
			}
			return nil
		})
	}
	return eg.Wait()
}

func (n *Hybrid) scoreItem(mctx *core.MatchContext, it *core.Item, params core.StageParams, multiplier float64) {
	if it == nil || it.Movie == nil {
		return
	}

	genreScore := GenreScore(it.Movie, mctx.User1Prefs, mctx.User2Prefs)
	embeddingScore := EmbeddingScore(it.Movie, mctx.User1Prefs, mctx.User2Prefs)

	it.Score = (params.GenreWeight*genreScore + params.EmbeddingWeight*embeddingScore) * multiplier

	it.PutLabel("genre_score", utils.Label{Value: formatScore(genreScore), Source: "rank"})
	it.PutLabel("embedding_score", utils.Label{Value: formatScore(embeddingScore), Source: "rank"})
	it.PutLabel("stage", utils.Label{Value: string(params.Stage), Source: "rank"})
}

// GenreScore 计算影片对两位用户的类型兼容分，取值 [0,1]。
// 单用户分 = 该用户对影片各类型权重的均值（未学习类型取中性 0.5）；
// 无类型影片直接返回中性 0.5。
func GenreScore(m *core.Movie, p1, p2 *core.UserPreference) float64 {
	if len(m.Genres) == 0 {
		return core.DefaultGenreWeight
	}
	return Combine(userGenreScore(m, p1), userGenreScore(m, p2))
}

func userGenreScore(m *core.Movie, p *core.UserPreference) float64 {
	var weights core.GenreWeights
	if p != nil {
		weights = p.GenreWeights
	}
	var sum float64
	for _, g := range m.Genres {
		sum += weights.Get(g)
	}
	return sum / float64(len(m.Genres))
}

// EmbeddingScore 计算影片对两位用户的语义相似分，取值 [0,1]。
// 余弦相似度先按保守满足规则融合，再从 [-1,1] 线性映射到 [0,1]。
// 影片无嵌入、或任一用户还没有偏好向量时，返回中性 0.5（降级，不是错误）。
func EmbeddingScore(m *core.Movie, p1, p2 *core.UserPreference) float64 {
	if !m.HasEmbedding() {
		return 0.5
	}
	if !p1.HasEmbedding() || !p2.HasEmbedding() {
		return 0.5
	}

	sim1 := vectormath.Cosine(m.Embedding, p1.Embedding)
	sim2 := vectormath.Cosine(m.Embedding, p2.Embedding)

	return (Combine(sim1, sim2) + 1) / 2
}

// Combine 是保守满足融合规则：0.7 × min(a,b) + 0.3 × mean(a,b)。
// 对 (a,b) 对称；a = b 时恰好等于 a。
func Combine(a, b float64) float64 {
	min := a
	if b < min {
		min = b
	}
	return 0.7*min + 0.3*(a+b)/2
}

// ConfidenceMultiplier 计算可信度系数 0.7 + 0.3 × mean(c1, c2)。
// 可信度 ∈ [0,1] 时系数 ∈ [0.7, 1.0]：画像越不确定分数压得越低，但不清零。
func ConfidenceMultiplier(c1, c2 float64) float64 {
	return 0.7 + 0.3*(c1+c2)/2
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

var _ pipeline.Node = (*Hybrid)(nil)

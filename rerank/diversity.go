package rerank

import (
	"context"
	"math"
	"math/rand"

	"github.com/rushteam/moviematch/core"
	"github.com/rushteam/moviematch/pipeline"
	"github.com/rushteam/moviematch/pkg/utils"
)

// DiversitySelector 把打分排序后的候选列表变成一个有界、多样、
// 探索/利用分配好的推荐批次。
//
// 流程：
//  1. exploration_count = floor(batch_size × stage.exploration_rate)，
//     exploitation_count = batch_size − exploration_count
//  2. 利用段：从榜首向下扫描，同一类型组合（GenreKey）最多收 2 部，
//     收满 exploitation_count 或扫完为止
//  3. 探索段：从排序列表 exploitation_count 之后的剩余部分
//     均匀无放回抽取 min(exploration_count, 剩余) 部，直接追加
//  4. 返回两段拼接；长度 ≤ batch_size，候选不足时变短是预期降级，不是错误
//
// 写入 labels：slot = exploit / explore，供解释工具区分来源。
type DiversitySelector struct {
	// BatchSize 请求的批次大小；<= 0 时取 DefaultBatchSize
	BatchSize int

	// MaxPerGenreKey 利用段同一类型组合的上限，默认 2
	MaxPerGenreKey int

	// Rand 随机源；为 nil 时使用全局源。测试注入固定种子即可复现。
	Rand *rand.Rand
}

// DefaultBatchSize 是未指定 batch_size 时的默认批次大小。
const DefaultBatchSize = 20

func (n *DiversitySelector) Name() string        { return "rerank.diversity_selector" }
func (n *DiversitySelector) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *DiversitySelector) Process(
	_ context.Context,
	mctx *core.MatchContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if mctx == nil || len(items) == 0 {
		return nil, nil
	}

	batchSize := n.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	params := mctx.StageParams()
	explorationCount := int(math.Floor(float64(batchSize) * params.ExplorationRate))
	exploitationCount := batchSize - explorationCount

	maxPerKey := n.MaxPerGenreKey
	if maxPerKey <= 0 {
		maxPerKey = 2
	}

	out := make([]*core.Item, 0, batchSize)

	// 利用段：榜首向下，按类型组合分桶去重
	genreCounts := make(map[string]int)
	for _, it := range items {
		if len(out) >= exploitationCount {
			break
		}
		if it == nil || it.Movie == nil {
			continue
		}
		key := it.Movie.GenreKey()
		if genreCounts[key] >= maxPerKey {
			continue
		}
		genreCounts[key]++
		it.PutLabel("slot", utils.Label{Value: "exploit", Source: "rerank"})
		out = append(out, it)
	}

	// 探索段：利用切片之后的剩余列表，均匀无放回抽样
	if explorationCount > 0 && exploitationCount < len(items) {
		remaining := items[exploitationCount:]
		draw := explorationCount
		if draw > len(remaining) {
			draw = len(remaining)
		}
		for _, idx := range n.perm(len(remaining))[:draw] {
			it := remaining[idx]
			if it == nil {
				continue
			}
			it.PutLabel("slot", utils.Label{Value: "explore", Source: "rerank"})
			out = append(out, it)
		}
	}

	return out, nil
}

func (n *DiversitySelector) perm(size int) []int {
	if n.Rand != nil {
		return n.Rand.Perm(size)
	}
	return rand.Perm(size)
}

var _ pipeline.Node = (*DiversitySelector)(nil)

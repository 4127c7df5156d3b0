package core

import "github.com/rushteam/moviematch/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选影片、分数、特征、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	Movie    *Movie
	Score    float64
	Features map[string]float64
	Labels   map[string]utils.Label
}

func NewItem(m *Movie) *Item {
	return &Item{
		Movie:    m,
		Score:    0,
		Features: make(map[string]float64),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

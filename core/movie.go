package core

import (
	"sort"
	"strings"
)

// Movie 是影片的只读领域模型。匹配引擎只消费影片数据，从不修改。
// Embedding 由外部编码器离线生成（标题/简介/类型 → 固定维度向量），
// 引擎不关心编码模型本身。
type Movie struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	ReleaseYear    int       `json:"release_year"`
	PosterURL      string    `json:"poster_url,omitempty"`
	Genres         []string  `json:"genres"`
	RuntimeMinutes int       `json:"runtime_minutes,omitempty"`
	Rating         float64   `json:"rating"`
	Embedding      []float64 `json:"embedding,omitempty"`
	WatchmodeID    string    `json:"watchmode_id,omitempty"`
}

// HasEmbedding 判断影片是否带有嵌入向量。
func (m *Movie) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// GenreKey 返回影片类型集合的无序 key：类型排序后以 '|' 连接。
// 无类型的影片统一归入 "unknown"，多样性约束按此 key 分桶去重。
func (m *Movie) GenreKey() string {
	if len(m.Genres) == 0 {
		return "unknown"
	}
	genres := make([]string, len(m.Genres))
	copy(genres, m.Genres)
	sort.Strings(genres)
	return strings.Join(genres, "|")
}

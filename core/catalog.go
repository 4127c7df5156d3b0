package core

import "context"

// 候选集质量下限与规模上限。
const (
	DefaultMinRating    = 6.0
	DefaultMinYear      = 1990
	DefaultCandidateCap = 1000
)

// CandidateFilter 是候选集查询的过滤条件。
// 候选生成是确定性的：给定目录状态与排除集，结果不含随机性，
// 随机性只在选择阶段（rerank）引入。
type CandidateFilter struct {
	// ExcludedIDs 需要排除的影片（请求用户最近反馈过的）
	ExcludedIDs map[int64]struct{}

	// MinRating / MinYear 质量下限
	MinRating float64
	MinYear   int

	// RequireEmbedding 只保留带嵌入向量的影片
	RequireEmbedding bool

	// Limit 候选集规模上限（控制打分成本）
	Limit int
}

// DefaultCandidateFilter 返回标准候选过滤条件：
// rating ≥ 6.0，year ≥ 1990，必须有嵌入，上限 1000。
func DefaultCandidateFilter(excluded map[int64]struct{}) CandidateFilter {
	return CandidateFilter{
		ExcludedIDs:      excluded,
		MinRating:        DefaultMinRating,
		MinYear:          DefaultMinYear,
		RequireEmbedding: true,
		Limit:            DefaultCandidateCap,
	}
}

// Matches 判断一部影片是否通过过滤条件（不含 Limit）。
func (f CandidateFilter) Matches(m *Movie) bool {
	if m == nil {
		return false
	}
	if f.ExcludedIDs != nil {
		if _, ok := f.ExcludedIDs[m.ID]; ok {
			return false
		}
	}
	if f.RequireEmbedding && !m.HasEmbedding() {
		return false
	}
	if m.Rating < f.MinRating {
		return false
	}
	if m.ReleaseYear < f.MinYear {
		return false
	}
	return true
}

// MovieCatalog 是影片目录的领域接口（只读协作方）。
type MovieCatalog interface {
	// GetMovie 按 ID 查影片；不存在时返回 ErrMovieNotFound
	GetMovie(ctx context.Context, id int64) (*Movie, error)

	// QueryCandidates 按过滤条件返回候选影片，结果受 filter.Limit 约束，
	// 且对同一目录状态与过滤条件必须是确定性的（稳定顺序）
	QueryCandidates(ctx context.Context, filter CandidateFilter) ([]*Movie, error)
}

// ErrMovieNotFound 表示影片 ID 无法解析。
var ErrMovieNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: movie not found")

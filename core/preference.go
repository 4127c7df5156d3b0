package core

// GenreWeights 是用户对各影片类型的学习权重。
// 约定：未出现过的类型默认权重 0.5（中性），所有读取都必须走 Get，
// 不要直接索引 map，否则缺失 key 会得到 0 而不是中性值。
//
// 权重不做显式 clamp：更新规则是向 [0,1] 内目标值的凸组合，
// 初始值 0.5 在 [0,1] 内，因此权重不可能越界。
type GenreWeights map[string]float64

// DefaultGenreWeight 是未学习类型的中性权重。
const DefaultGenreWeight = 0.5

// Get 返回某类型的权重，未学习过的类型返回 DefaultGenreWeight。
func (w GenreWeights) Get(genre string) float64 {
	if w == nil {
		return DefaultGenreWeight
	}
	if v, ok := w[genre]; ok {
		return v
	}
	return DefaultGenreWeight
}

// Set 写入某类型的权重，必要时初始化底层 map。
func (w *GenreWeights) Set(genre string, weight float64) {
	if *w == nil {
		*w = make(GenreWeights)
	}
	(*w)[genre] = weight
}

// UserPreference 是单个用户学习到的口味画像。
//
// 维度          作用
// GenreWeights  类型亲和度（EMA 向反馈目标收敛）
// Embedding     语义口味质心（与影片嵌入同空间）
// Confidence    画像可信度，min(1, Interactions/20)，单调不减
// Interactions  个人累计反馈数（跨会话累计，区别于会话内计数）
//
// 生命周期：首次反馈时懒创建；跨会话长期存在，该用户参与的所有会话共享。
// 只允许 Feedback Processor 通过原子读-改-写修改（见 core.AtomicStore）。
type UserPreference struct {
	UserID       string       `json:"user_id"`
	GenreWeights GenreWeights `json:"genre_weights"`
	Embedding    []float64    `json:"embedding,omitempty"`
	Confidence   float64      `json:"confidence"`
	Interactions int          `json:"interactions"`
}

// NewUserPreference 创建空白画像（bootstrap 场景：偏好行不存在不是错误）。
func NewUserPreference(userID string) *UserPreference {
	return &UserPreference{
		UserID:       userID,
		GenreWeights: make(GenreWeights),
	}
}

// HasEmbedding 判断用户是否已学习到偏好向量。
func (p *UserPreference) HasEmbedding() bool {
	return p != nil && len(p.Embedding) > 0
}

// ConfidenceOf 返回画像可信度；nil 画像视为 0（全新用户）。
func (p *UserPreference) ConfidenceOf() float64 {
	if p == nil {
		return 0
	}
	return p.Confidence
}

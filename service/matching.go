// Package service 是 moviematch 的编排层：把召回、过滤、打分、选择
// 组装成 Pipeline，对外暴露会话、推荐、反馈、统计四组操作。
package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/moviematch/core"
	"github.com/rushteam/moviematch/feature"
	"github.com/rushteam/moviematch/feedback"
	"github.com/rushteam/moviematch/filter"
	"github.com/rushteam/moviematch/pipeline"
	"github.com/rushteam/moviematch/pkg/utils"
	"github.com/rushteam/moviematch/rank"
	"github.com/rushteam/moviematch/recall"
	"github.com/rushteam/moviematch/rerank"
)

// MatchingService 是双人匹配引擎的门面。
//
// 一次 GetRecommendations 的链路：
//
//	CandidatePool → [FilterNode] → [EnrichNode] → Hybrid → DiversitySelector
//
// 画像在入口处一次性快照加载，Pipeline 内部只读不回写；
// 反馈路径（ProcessFeedback）才会修改画像与会话。
type MatchingService struct {
	Preferences core.PreferenceStore
	Sessions    core.SessionStore
	Feedback    core.FeedbackStore
	Catalog     core.MovieCatalog

	// BatchSize 默认批次大小；请求未指定 batch_size 时使用
	BatchSize int

	// MaxCandidates / RecentWindow / MinRating / MinYear 候选召回参数，
	// 零值时取 core 默认
	MaxCandidates int
	RecentWindow  int
	MinRating     float64
	MinYear       int

	// Rules 候选准入规则（CEL 表达式），逐条 AND
	Rules []string

	// Enrich 可选的在线特征注入节点
	Enrich *feature.EnrichNode

	// RankParallelism 打分并发度，<= 1 串行
	RankParallelism int

	// Rand 探索段随机源；为 nil 时使用全局源
	Rand *rand.Rand

	// Now 时间源，测试可注入
	Now func() time.Time

	processor *feedback.Processor
}

// Recommendation 是推荐批次中的一部影片。
// 不携带嵌入向量：嵌入是内部表征，payload 只暴露展示字段与解释标签。
type Recommendation struct {
	MovieID        int64                  `json:"movie_id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description,omitempty"`
	ReleaseYear    int                    `json:"release_year"`
	PosterURL      string                 `json:"poster_url,omitempty"`
	Genres         []string               `json:"genres"`
	RuntimeMinutes int                    `json:"runtime_minutes,omitempty"`
	Rating         float64                `json:"rating"`
	WatchmodeID    string                 `json:"watchmode_id,omitempty"`
	Score          float64                `json:"score"`
	Labels         map[string]utils.Label `json:"labels,omitempty"`
}

// RecommendationBatch 是一次推荐的返回载荷，附带会话阶段元数据。
type RecommendationBatch struct {
	SessionID         string           `json:"session_id"`
	Stage             core.Stage       `json:"stage"`
	TotalInteractions int              `json:"total_interactions"`
	MutualLikes       int              `json:"mutual_likes"`
	Recommendations   []Recommendation `json:"recommendations"`
}

// SessionStats 是会话统计载荷。
type SessionStats struct {
	SessionID    string                          `json:"session_id"`
	Stage        core.Stage                      `json:"stage"`
	Interactions int                             `json:"interactions"`
	MutualLikes  int                             `json:"mutual_likes"`
	PerUser      map[string]*core.FeedbackCounts `json:"per_user"`
	CreatedAt    time.Time                       `json:"created_at"`
	UpdatedAt    time.Time                       `json:"updated_at"`
}

// CreateSession 为一对用户创建匹配会话，返回新会话。
func (s *MatchingService) CreateSession(ctx context.Context, user1ID, user2ID string) (*core.MatchingSession, error) {
	if user1ID == "" || user2ID == "" {
		return nil, core.NewDomainError(core.ModuleSession, core.ErrorCodeInvalidInput,
			"session: both user ids are required")
	}
	if user1ID == user2ID {
		return nil, core.NewDomainError(core.ModuleSession, core.ErrorCodeInvalidInput,
			"session: users must be distinct")
	}

	now := s.now()
	sess := &core.MatchingSession{
		ID:        uuid.NewString(),
		User1ID:   user1ID,
		User2ID:   user2ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetRecommendations 为会话中的 userID 生成一个推荐批次。
// batchSize <= 0 时取服务默认值。候选不足时批次变短，不是错误；
// 候选为空返回空批次。
func (s *MatchingService) GetRecommendations(
	ctx context.Context,
	sessionID, userID string,
	batchSize int,
) (*RecommendationBatch, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasUser(userID) {
		return nil, core.NewDomainError(core.ModuleSession, core.ErrorCodeInvalidInput,
			"session: user is not a participant")
	}

	p1, err := s.loadPreference(ctx, sess.User1ID)
	if err != nil {
		return nil, err
	}
	p2, err := s.loadPreference(ctx, sess.User2ID)
	if err != nil {
		return nil, err
	}

	if batchSize <= 0 {
		batchSize = s.BatchSize
	}
	if batchSize <= 0 {
		batchSize = rerank.DefaultBatchSize
	}

	mctx := &core.MatchContext{
		Session:    sess,
		UserID:     userID,
		User1Prefs: p1,
		User2Prefs: p2,
		Params:     map[string]any{"batch_size": batchSize},
	}

	items, err := s.buildPipeline(batchSize).Run(ctx, mctx, nil)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil || it.Movie == nil {
			continue
		}
		m := it.Movie
		recs = append(recs, Recommendation{
			MovieID:        m.ID,
			Title:          m.Title,
			Description:    m.Description,
			ReleaseYear:    m.ReleaseYear,
			PosterURL:      m.PosterURL,
			Genres:         m.Genres,
			RuntimeMinutes: m.RuntimeMinutes,
			Rating:         m.Rating,
			WatchmodeID:    m.WatchmodeID,
			Score:          it.Score,
			Labels:         it.Labels,
		})
	}

	return &RecommendationBatch{
		SessionID:         sess.ID,
		Stage:             sess.Stage(),
		TotalInteractions: sess.Interactions,
		MutualLikes:       sess.MutualLikes,
		Recommendations:   recs,
	}, nil
}

// ProcessFeedback 处理一条反馈：事件落库、画像学习、会话状态推进。
func (s *MatchingService) ProcessFeedback(
	ctx context.Context,
	sessionID, userID string,
	movieID int64,
	fbType string,
	timeSpentMS int64,
) error {
	return s.feedbackProcessor().Process(ctx, sessionID, userID, movieID, fbType, timeSpentMS)
}

// GetSessionStats 返回会话的阶段与按用户分组的反馈统计。
func (s *MatchingService) GetSessionStats(ctx context.Context, sessionID string) (*SessionStats, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	perUser, err := s.Feedback.Stats(ctx, sessionID, sess.User1ID, sess.User2ID)
	if err != nil {
		return nil, err
	}

	return &SessionStats{
		SessionID:    sess.ID,
		Stage:        sess.Stage(),
		Interactions: sess.Interactions,
		MutualLikes:  sess.MutualLikes,
		PerUser:      perUser,
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
	}, nil
}

// GetUserPreferences 返回用户画像；画像不存在时返回空白画像（冷启动不是错误）。
func (s *MatchingService) GetUserPreferences(ctx context.Context, userID string) (*core.UserPreference, error) {
	return s.loadPreference(ctx, userID)
}

// buildPipeline 组装一次推荐的 Node 链。
func (s *MatchingService) buildPipeline(batchSize int) *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&recall.CandidatePool{
			Catalog:       s.Catalog,
			Feedback:      s.Feedback,
			RecentWindow:  s.RecentWindow,
			MaxCandidates: s.MaxCandidates,
			MinRating:     s.MinRating,
			MinYear:       s.MinYear,
		},
	}

	if len(s.Rules) > 0 {
		filters := make([]filter.Filter, 0, len(s.Rules))
		for _, expr := range s.Rules {
			filters = append(filters, &filter.RuleFilter{Expr: expr})
		}
		nodes = append(nodes, &filter.FilterNode{Filters: filters})
	}

	if s.Enrich != nil {
		nodes = append(nodes, s.Enrich)
	}

	nodes = append(nodes,
		&rank.Hybrid{Parallelism: s.RankParallelism},
		&rerank.DiversitySelector{BatchSize: batchSize, Rand: s.Rand},
	)

	return &pipeline.Pipeline{Nodes: nodes}
}

func (s *MatchingService) feedbackProcessor() *feedback.Processor {
	if s.processor == nil {
		s.processor = &feedback.Processor{
			Preferences: s.Preferences,
			Sessions:    s.Sessions,
			Feedback:    s.Feedback,
			Catalog:     s.Catalog,
			Now:         s.Now,
		}
	}
	return s.processor
}

func (s *MatchingService) loadPreference(ctx context.Context, userID string) (*core.UserPreference, error) {
	p, err := s.Preferences.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrPreferenceNotFound) || core.IsNotFound(err) {
			return core.NewUserPreference(userID), nil
		}
		return nil, err
	}
	return p, nil
}

func (s *MatchingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

package store

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/rushteam/moviematch/core"
)

// Backend 是领域适配器要求的存储能力：KV + Hash/ZSet + 原子读-改-写。
// MemoryStore 与 RedisStore 都满足。
type Backend interface {
	core.KeyValueStore
	core.AtomicStore
}

// 键布局：
//   mm:pref:{user_id}                JSON 画像行
//   mm:session:{session_id}          JSON 会话行
//   mm:feedback:{session_id}:{user}  zset：member=JSON 事件，score=时间戳
//   mm:movies                        hash：field=影片 ID，value=JSON 影片

func prefKey(userID string) string       { return "mm:pref:" + userID }
func sessionKey(sessionID string) string { return "mm:session:" + sessionID }
func feedbackKey(sessionID, userID string) string {
	return "mm:feedback:" + sessionID + ":" + userID
}

const moviesKey = "mm:movies"

// PreferenceRepo 把 Backend 适配成 core.PreferenceStore。
// Update 的原子性由 Backend.Update 保证（内存为锁内执行，Redis 为 WATCH 重试）。
type PreferenceRepo struct {
	kv Backend
}

func NewPreferenceRepo(kv Backend) *PreferenceRepo { return &PreferenceRepo{kv: kv} }

func (r *PreferenceRepo) Get(ctx context.Context, userID string) (*core.UserPreference, error) {
	raw, err := r.kv.Get(ctx, prefKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrPreferenceNotFound
		}
		return nil, err
	}
	var pref core.UserPreference
	if err := json.Unmarshal(raw, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *PreferenceRepo) Update(ctx context.Context, userID string, fn func(p *core.UserPreference) error) (*core.UserPreference, error) {
	var updated *core.UserPreference
	err := r.kv.Update(ctx, prefKey(userID), func(old []byte) ([]byte, error) {
		// 画像行不存在按冷启动兜底，不是错误
		pref := core.NewUserPreference(userID)
		if old != nil {
			if err := json.Unmarshal(old, pref); err != nil {
				return nil, err
			}
		}
		if err := fn(pref); err != nil {
			return nil, err
		}
		updated = pref
		return json.Marshal(pref)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SessionRepo 把 Backend 适配成 core.SessionStore。
type SessionRepo struct {
	kv Backend
}

func NewSessionRepo(kv Backend) *SessionRepo { return &SessionRepo{kv: kv} }

func (r *SessionRepo) Create(ctx context.Context, s *core.MatchingSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, sessionKey(s.ID), raw)
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*core.MatchingSession, error) {
	raw, err := r.kv.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrSessionNotFound
		}
		return nil, err
	}
	var s core.MatchingSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Update(ctx context.Context, sessionID string, fn func(s *core.MatchingSession) error) (*core.MatchingSession, error) {
	var updated *core.MatchingSession
	err := r.kv.Update(ctx, sessionKey(sessionID), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, core.ErrSessionNotFound
		}
		var s core.MatchingSession
		if err := json.Unmarshal(old, &s); err != nil {
			return nil, err
		}
		if err := fn(&s); err != nil {
			return nil, err
		}
		updated = &s
		return json.Marshal(&s)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// FeedbackRepo 把 Backend 适配成 core.FeedbackStore。
// 事件按 (session, user) 维度存 zset，score 取时间戳，
// ZRange 降序读取即按时间倒序的反馈流水。
type FeedbackRepo struct {
	kv Backend
}

func NewFeedbackRepo(kv Backend) *FeedbackRepo { return &FeedbackRepo{kv: kv} }

func (r *FeedbackRepo) Append(ctx context.Context, ev *core.FeedbackEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	score := float64(ev.Timestamp.UnixNano())
	return r.kv.ZAdd(ctx, feedbackKey(ev.SessionID, ev.UserID), score, string(raw))
}

func (r *FeedbackRepo) Recent(ctx context.Context, sessionID, userID string, limit int) ([]*core.FeedbackEvent, error) {
	if limit <= 0 {
		limit = core.RecentFeedbackWindow
	}
	members, err := r.kv.ZRange(ctx, feedbackKey(sessionID, userID), 0, int64(limit-1))
	if err != nil {
		return nil, err
	}
	return decodeEvents(members)
}

func (r *FeedbackRepo) HasFeedback(ctx context.Context, sessionID, userID string, movieID int64, t core.FeedbackType) (bool, error) {
	members, err := r.kv.ZRange(ctx, feedbackKey(sessionID, userID), 0, -1)
	if err != nil {
		return false, err
	}
	events, err := decodeEvents(members)
	if err != nil {
		return false, err
	}
	for _, ev := range events {
		if ev.MovieID == movieID && ev.Type == t {
			return true, nil
		}
	}
	return false, nil
}

func (r *FeedbackRepo) Stats(ctx context.Context, sessionID string, userIDs ...string) (map[string]*core.FeedbackCounts, error) {
	out := make(map[string]*core.FeedbackCounts, len(userIDs))
	for _, userID := range userIDs {
		counts := &core.FeedbackCounts{}
		members, err := r.kv.ZRange(ctx, feedbackKey(sessionID, userID), 0, -1)
		if err != nil {
			return nil, err
		}
		events, err := decodeEvents(members)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			counts.Add(ev.Type)
		}
		out[userID] = counts
	}
	return out, nil
}

func decodeEvents(members []string) ([]*core.FeedbackEvent, error) {
	events := make([]*core.FeedbackEvent, 0, len(members))
	for _, m := range members {
		var ev core.FeedbackEvent
		if err := json.Unmarshal([]byte(m), &ev); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	return events, nil
}

// CatalogRepo 把 Backend 适配成 core.MovieCatalog。
type CatalogRepo struct {
	kv Backend
}

func NewCatalogRepo(kv Backend) *CatalogRepo { return &CatalogRepo{kv: kv} }

func (r *CatalogRepo) GetMovie(ctx context.Context, id int64) (*core.Movie, error) {
	raw, err := r.kv.HGet(ctx, moviesKey, strconv.FormatInt(id, 10))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrMovieNotFound
		}
		return nil, err
	}
	var m core.Movie
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// QueryCandidates 全量扫描影片 hash 后按过滤条件筛选。
// hash 的遍历顺序不稳定，先按影片 ID 升序排序再截断，
// 保证同一目录状态下候选集确定。
func (r *CatalogRepo) QueryCandidates(ctx context.Context, filter core.CandidateFilter) ([]*core.Movie, error) {
	rows, err := r.kv.HGetAll(ctx, moviesKey)
	if err != nil {
		return nil, err
	}

	movies := make([]*core.Movie, 0, len(rows))
	for _, raw := range rows {
		var m core.Movie
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		if !filter.Matches(&m) {
			continue
		}
		movies = append(movies, &m)
	}

	sort.Slice(movies, func(i, j int) bool { return movies[i].ID < movies[j].ID })

	if filter.Limit > 0 && len(movies) > filter.Limit {
		movies = movies[:filter.Limit]
	}
	return movies, nil
}

// PutMovie 写入/覆盖一部影片（目录灌数据用；引擎本身从不修改影片）。
func (r *CatalogRepo) PutMovie(ctx context.Context, m *core.Movie) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return r.kv.HSet(ctx, moviesKey, strconv.FormatInt(m.ID, 10), raw)
}

// 确保各适配器实现了领域存储接口
var (
	_ core.PreferenceStore = (*PreferenceRepo)(nil)
	_ core.SessionStore    = (*SessionRepo)(nil)
	_ core.FeedbackStore   = (*FeedbackRepo)(nil)
	_ core.MovieCatalog    = (*CatalogRepo)(nil)
)

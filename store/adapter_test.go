package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/moviematch/core"
)

func newBackend(t *testing.T) Backend {
	t.Helper()
	ms := NewMemoryStore()
	t.Cleanup(func() { ms.Close() })
	return ms
}

func TestPreferenceRepoBootstrap(t *testing.T) {
	ctx := context.Background()
	repo := NewPreferenceRepo(newBackend(t))

	if _, err := repo.Get(ctx, "u1"); !errors.Is(err, core.ErrPreferenceNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrPreferenceNotFound", err)
	}

	// Update 对不存在的画像以空白画像兜底
	p, err := repo.Update(ctx, "u1", func(p *core.UserPreference) error {
		p.GenreWeights.Set("Drama", 0.65)
		p.Interactions = 1
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.UserID != "u1" || p.Interactions != 1 {
		t.Errorf("updated pref = %+v", p)
	}

	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.GenreWeights.Get("Drama") != 0.65 {
		t.Errorf("Drama = %v, want 0.65", got.GenreWeights.Get("Drama"))
	}
}

func TestSessionRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newBackend(t))

	if _, err := repo.Get(ctx, "ghost"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Get(ghost) err = %v, want ErrSessionNotFound", err)
	}
	if _, err := repo.Update(ctx, "ghost", func(s *core.MatchingSession) error { return nil }); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Update(ghost) err = %v, want ErrSessionNotFound", err)
	}

	sess := &core.MatchingSession{ID: "s1", User1ID: "u1", User2ID: "u2", CreatedAt: time.Unix(1, 0)}
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := repo.Update(ctx, "s1", func(s *core.MatchingSession) error {
		s.Interactions++
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Interactions != 1 {
		t.Errorf("Interactions = %d, want 1", updated.Interactions)
	}

	got, err := repo.Get(ctx, "s1")
	if err != nil || got.Interactions != 1 || got.User2ID != "u2" {
		t.Errorf("Get = %+v, %v", got, err)
	}
}

func TestFeedbackRepoRecentOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedbackRepo(newBackend(t))

	base := time.Unix(1700000000, 0)
	for i := int64(1); i <= 5; i++ {
		ev := &core.FeedbackEvent{
			SessionID: "s1", UserID: "u1", MovieID: i,
			Type: core.FeedbackLike, Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Append(ctx, ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	events, err := repo.Recent(ctx, "s1", "u1", 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	// 倒序：最新的在前
	for i, want := range []int64{5, 4, 3} {
		if events[i].MovieID != want {
			t.Errorf("events[%d].MovieID = %d, want %d", i, events[i].MovieID, want)
		}
	}

	// 会话/用户维度隔离
	other, err := repo.Recent(ctx, "s1", "u2", 10)
	if err != nil {
		t.Fatalf("Recent(u2): %v", err)
	}
	if len(other) != 0 {
		t.Errorf("u2 events = %d, want 0", len(other))
	}
}

func TestFeedbackRepoHasFeedbackAndStats(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedbackRepo(newBackend(t))

	base := time.Unix(1700000000, 0)
	feed := []struct {
		user string
		id   int64
		t    core.FeedbackType
	}{
		{"u1", 1, core.FeedbackLike},
		{"u1", 2, core.FeedbackDislike},
		{"u2", 1, core.FeedbackLike},
		{"u2", 3, core.FeedbackSkip},
	}
	for i, f := range feed {
		ev := &core.FeedbackEvent{
			SessionID: "s1", UserID: f.user, MovieID: f.id,
			Type: f.t, Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Append(ctx, ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	ok, err := repo.HasFeedback(ctx, "s1", "u2", 1, core.FeedbackLike)
	if err != nil || !ok {
		t.Errorf("HasFeedback(u2, 1, like) = %v, %v, want true", ok, err)
	}
	ok, _ = repo.HasFeedback(ctx, "s1", "u1", 2, core.FeedbackLike)
	if ok {
		t.Errorf("HasFeedback(u1, 2, like) = true, want false (was dislike)")
	}

	stats, err := repo.Stats(ctx, "s1", "u1", "u2")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if c := stats["u1"]; c.Likes != 1 || c.Dislikes != 1 || c.Skips != 0 {
		t.Errorf("u1 stats = %+v", c)
	}
	if c := stats["u2"]; c.Likes != 1 || c.Skips != 1 {
		t.Errorf("u2 stats = %+v", c)
	}
}

func TestCatalogRepoQueryCandidates(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepo(newBackend(t))

	movies := []*core.Movie{
		{ID: 1, Title: "keeper", Rating: 8.0, ReleaseYear: 2000, Embedding: []float64{1}},
		{ID: 2, Title: "too old", Rating: 8.0, ReleaseYear: 1985, Embedding: []float64{1}},
		{ID: 3, Title: "low rating", Rating: 5.0, ReleaseYear: 2000, Embedding: []float64{1}},
		{ID: 4, Title: "no embedding", Rating: 8.0, ReleaseYear: 2000},
		{ID: 5, Title: "excluded", Rating: 8.0, ReleaseYear: 2000, Embedding: []float64{1}},
		{ID: 6, Title: "keeper 2", Rating: 6.0, ReleaseYear: 1990, Embedding: []float64{1}},
	}
	for _, m := range movies {
		if err := repo.PutMovie(ctx, m); err != nil {
			t.Fatalf("PutMovie: %v", err)
		}
	}

	filter := core.DefaultCandidateFilter(map[int64]struct{}{5: {}})
	got, err := repo.QueryCandidates(ctx, filter)
	if err != nil {
		t.Fatalf("QueryCandidates: %v", err)
	}

	// 质量下限是闭区间：rating 6.0 / year 1990 恰好达标
	wantIDs := []int64{1, 6}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d movies, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %d, want %d (sorted by id)", i, got[i].ID, id)
		}
	}
}

func TestCatalogRepoLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepo(newBackend(t))

	for i := int64(1); i <= 10; i++ {
		m := &core.Movie{ID: i, Rating: 8.0, ReleaseYear: 2000, Embedding: []float64{1}}
		if err := repo.PutMovie(ctx, m); err != nil {
			t.Fatalf("PutMovie: %v", err)
		}
	}

	filter := core.DefaultCandidateFilter(nil)
	filter.Limit = 3
	got, err := repo.QueryCandidates(ctx, filter)
	if err != nil {
		t.Fatalf("QueryCandidates: %v", err)
	}
	if len(got) != 3 || got[0].ID != 1 || got[2].ID != 3 {
		t.Errorf("limited candidates = %v", got)
	}
}

func TestCatalogRepoGetMovie(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepo(newBackend(t))

	if _, err := repo.GetMovie(ctx, 404); !core.IsNotFound(err) {
		t.Errorf("GetMovie(404) err = %v, want not found", err)
	}

	m := &core.Movie{ID: 7, Title: "Heat", Genres: []string{"Action", "Crime"}}
	if err := repo.PutMovie(ctx, m); err != nil {
		t.Fatalf("PutMovie: %v", err)
	}
	got, err := repo.GetMovie(ctx, 7)
	if err != nil || got.Title != "Heat" || len(got.Genres) != 2 {
		t.Errorf("GetMovie = %+v, %v", got, err)
	}
}

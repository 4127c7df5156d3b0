package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/moviematch/core"
)

const eps = 1e-9

func TestCombine(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"identity when equal", 0.8, 0.8, 0.8},
		{"min dominates", 1.0, 0.0, 0.7*0.0 + 0.3*0.5},
		{"asymmetric inputs", 0.9, 0.3, 0.7*0.3 + 0.3*0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Combine(tt.a, tt.b); math.Abs(got-tt.want) > eps {
				t.Errorf("Combine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// 对称性
			if got, rev := Combine(tt.a, tt.b), Combine(tt.b, tt.a); math.Abs(got-rev) > eps {
				t.Errorf("Combine not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestConfidenceMultiplier(t *testing.T) {
	tests := []struct {
		c1, c2 float64
		want   float64
	}{
		{0, 0, 0.7},  // 双冷启动：压到下限但不清零
		{1, 1, 1.0},  // 双成熟画像：不压分
		{1, 0, 0.85}, // 单边成熟
	}
	for _, tt := range tests {
		if got := ConfidenceMultiplier(tt.c1, tt.c2); math.Abs(got-tt.want) > eps {
			t.Errorf("ConfidenceMultiplier(%v, %v) = %v, want %v", tt.c1, tt.c2, got, tt.want)
		}
	}
}

func TestGenreScore(t *testing.T) {
	p1 := core.NewUserPreference("u1")
	p1.GenreWeights.Set("Action", 0.9)
	p1.GenreWeights.Set("Crime", 0.7)
	p2 := core.NewUserPreference("u2")
	p2.GenreWeights.Set("Action", 0.3)
	p2.GenreWeights.Set("Crime", 0.5)

	m := &core.Movie{ID: 1, Genres: []string{"Action", "Crime"}}

	// u1 = (0.9+0.7)/2 = 0.8，u2 = (0.3+0.5)/2 = 0.4
	want := Combine(0.8, 0.4)
	if got := GenreScore(m, p1, p2); math.Abs(got-want) > eps {
		t.Errorf("GenreScore = %v, want %v", got, want)
	}
}

func TestGenreScoreNeutralCases(t *testing.T) {
	m := &core.Movie{ID: 1, Genres: []string{"Action"}}

	// 双方都未学习过该类型 → 0.5
	if got := GenreScore(m, core.NewUserPreference("u1"), core.NewUserPreference("u2")); got != 0.5 {
		t.Errorf("unseen genre = %v, want 0.5", got)
	}
	// nil 画像也走中性降级
	if got := GenreScore(m, nil, nil); got != 0.5 {
		t.Errorf("nil prefs = %v, want 0.5", got)
	}
	// 无类型影片 → 0.5
	if got := GenreScore(&core.Movie{ID: 2}, nil, nil); got != 0.5 {
		t.Errorf("no genres = %v, want 0.5", got)
	}
}

func TestEmbeddingScore(t *testing.T) {
	m := &core.Movie{ID: 1, Embedding: []float64{1, 0}}

	t.Run("identical vectors score 1.0", func(t *testing.T) {
		p1 := &core.UserPreference{UserID: "u1", Embedding: []float64{1, 0}}
		p2 := &core.UserPreference{UserID: "u2", Embedding: []float64{2, 0}}
		if got := EmbeddingScore(m, p1, p2); math.Abs(got-1.0) > eps {
			t.Errorf("EmbeddingScore = %v, want 1.0", got)
		}
	})

	t.Run("opposite vectors score 0.0", func(t *testing.T) {
		p1 := &core.UserPreference{UserID: "u1", Embedding: []float64{-1, 0}}
		p2 := &core.UserPreference{UserID: "u2", Embedding: []float64{-1, 0}}
		if got := EmbeddingScore(m, p1, p2); math.Abs(got) > eps {
			t.Errorf("EmbeddingScore = %v, want 0.0", got)
		}
	})

	t.Run("missing movie embedding degrades to 0.5", func(t *testing.T) {
		p := &core.UserPreference{UserID: "u1", Embedding: []float64{1, 0}}
		if got := EmbeddingScore(&core.Movie{ID: 2}, p, p); got != 0.5 {
			t.Errorf("EmbeddingScore = %v, want 0.5", got)
		}
	})

	t.Run("missing user embedding degrades to 0.5", func(t *testing.T) {
		p := &core.UserPreference{UserID: "u1", Embedding: []float64{1, 0}}
		if got := EmbeddingScore(m, p, core.NewUserPreference("u2")); got != 0.5 {
			t.Errorf("EmbeddingScore = %v, want 0.5", got)
		}
		if got := EmbeddingScore(m, nil, p); got != 0.5 {
			t.Errorf("nil pref: EmbeddingScore = %v, want 0.5", got)
		}
	})
}

func TestHybridProcess(t *testing.T) {
	p1 := core.NewUserPreference("u1")
	p1.GenreWeights.Set("Action", 1.0)
	p1.Confidence = 1.0
	p2 := core.NewUserPreference("u2")
	p2.GenreWeights.Set("Action", 1.0)
	p2.Confidence = 1.0

	mctx := &core.MatchContext{
		Session:    &core.MatchingSession{ID: "s1", User1ID: "u1", User2ID: "u2", Interactions: 5},
		UserID:     "u1",
		User1Prefs: p1,
		User2Prefs: p2,
	}

	items := []*core.Item{
		core.NewItem(&core.Movie{ID: 1, Genres: []string{"Drama"}}),  // 中性 0.5
		core.NewItem(&core.Movie{ID: 2, Genres: []string{"Action"}}), // 1.0
	}

	node := &Hybrid{}
	out, err := node.Process(context.Background(), mctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if out[0].Movie.ID != 2 {
		t.Errorf("top item = %d, want Action movie 2", out[0].Movie.ID)
	}
	// exploration 阶段：0.7 × genre + 0.2 × embedding(中性 0.5)，可信度系数 1.0
	want := 0.7*1.0 + 0.2*0.5
	if math.Abs(out[0].Score-want) > eps {
		t.Errorf("top score = %v, want %v", out[0].Score, want)
	}

	if lbl, ok := out[0].Labels["stage"]; !ok || lbl.Value != "exploration" {
		t.Errorf("stage label = %+v, want exploration", lbl)
	}
	if _, ok := out[0].Labels["genre_score"]; !ok {
		t.Errorf("missing genre_score label")
	}
}

func TestHybridParallelMatchesSerial(t *testing.T) {
	p1 := core.NewUserPreference("u1")
	p1.GenreWeights.Set("Action", 0.9)
	p1.Embedding = []float64{1, 0, 0}
	p1.Confidence = 0.5
	p2 := core.NewUserPreference("u2")
	p2.GenreWeights.Set("Action", 0.2)
	p2.Embedding = []float64{0, 1, 0}
	p2.Confidence = 0.3

	mkItems := func() []*core.Item {
		items := make([]*core.Item, 0, 50)
		for i := 0; i < 50; i++ {
			items = append(items, core.NewItem(&core.Movie{
				ID:        int64(i + 1),
				Genres:    []string{"Action"},
				Embedding: []float64{float64(i) / 50, 1 - float64(i)/50, 0.1},
			}))
		}
		return items
	}

	mctx := &core.MatchContext{
		Session:    &core.MatchingSession{ID: "s1", User1ID: "u1", User2ID: "u2", Interactions: 15},
		User1Prefs: p1,
		User2Prefs: p2,
	}

	serial, err := (&Hybrid{}).Process(context.Background(), mctx, mkItems())
	if err != nil {
		t.Fatalf("serial Process() error = %v", err)
	}
	parallel, err := (&Hybrid{Parallelism: 4}).Process(context.Background(), mctx, mkItems())
	if err != nil {
		t.Fatalf("parallel Process() error = %v", err)
	}

	for i := range serial {
		if serial[i].Movie.ID != parallel[i].Movie.ID {
			t.Fatalf("order mismatch at %d: serial=%d parallel=%d",
				i, serial[i].Movie.ID, parallel[i].Movie.ID)
		}
		if math.Abs(serial[i].Score-parallel[i].Score) > eps {
			t.Fatalf("score mismatch at %d: %v vs %v", i, serial[i].Score, parallel[i].Score)
		}
	}
}

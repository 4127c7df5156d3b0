package feature

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/moviematch/core"
)

// fakeClient 是测试用的 Client 实现。
type fakeClient struct {
	resp *GetOnlineFeaturesResponse
	err  error

	gotReq *GetOnlineFeaturesRequest
}

func (f *fakeClient) GetOnlineFeatures(_ context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	f.gotReq = req
	return f.resp, f.err
}

func (f *fakeClient) Close() error { return nil }

func TestEnrichNode(t *testing.T) {
	items := []*core.Item{
		core.NewItem(&core.Movie{ID: 1}),
		core.NewItem(&core.Movie{ID: 2}),
	}

	client := &fakeClient{
		resp: &GetOnlineFeaturesResponse{
			FeatureVectors: []FeatureVector{
				{Values: map[string]interface{}{"movie_stats:popularity": 0.8}},
				{Values: map[string]interface{}{"movie_stats:popularity": 0.3}},
			},
		},
	}

	node := &EnrichNode{Client: client, Features: []string{"movie_stats:popularity"}}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if client.gotReq == nil || len(client.gotReq.EntityRows) != 2 {
		t.Fatalf("request rows = %+v", client.gotReq)
	}
	if client.gotReq.EntityRows[0]["movie_id"] != int64(1) {
		t.Errorf("entity row = %+v, want movie_id 1", client.gotReq.EntityRows[0])
	}

	if got := out[0].Features["movie_stats:popularity"]; got != 0.8 {
		t.Errorf("feature = %v, want 0.8", got)
	}
	if lbl := out[0].Labels["feature_enriched"]; lbl.Value != "true" {
		t.Errorf("missing feature_enriched label")
	}
}

func TestEnrichNodeDegradesOnError(t *testing.T) {
	items := []*core.Item{core.NewItem(&core.Movie{ID: 1})}

	node := &EnrichNode{
		Client:   &fakeClient{err: errors.New("feast unavailable")},
		Features: []string{"movie_stats:popularity"},
	}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("feature outage must not break the pipeline: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("len(out) = %d, want passthrough", len(out))
	}
	if len(out[0].Features) != 0 {
		t.Errorf("features should stay empty on error: %v", out[0].Features)
	}
}

func TestEnrichNodeSkipsWhenUnconfigured(t *testing.T) {
	items := []*core.Item{core.NewItem(&core.Movie{ID: 1})}

	// 无 Client 或无 Features：原样透传
	out, err := (&EnrichNode{}).Process(context.Background(), nil, items)
	if err != nil || len(out) != 1 {
		t.Errorf("Process = %v, %v", out, err)
	}
}

func TestEnrichNodeRowCountMismatch(t *testing.T) {
	items := []*core.Item{
		core.NewItem(&core.Movie{ID: 1}),
		core.NewItem(&core.Movie{ID: 2}),
	}

	node := &EnrichNode{
		Client: &fakeClient{
			resp: &GetOnlineFeaturesResponse{
				FeatureVectors: []FeatureVector{{Values: map[string]interface{}{"f": 1.0}}},
			},
		},
		Features: []string{"f"},
	}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// 行数不匹配：整批跳过注入
	for _, it := range out {
		if len(it.Features) != 0 {
			t.Errorf("features should stay empty on mismatch: %v", it.Features)
		}
	}
}

package evaluation

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/agoralabs/agora/internal/api/openai"
)

// mockResponseProvider returns a canned judge response.
type mockResponseProvider struct {
	createFunc func(ctx context.Context, req *openai.ResponsesRequest) (*openai.Response, error)
	lastReq    *openai.ResponsesRequest
}

func (m *mockResponseProvider) CreateResponse(ctx context.Context, req *openai.ResponsesRequest) (*openai.Response, error) {
	m.lastReq = req
	return m.createFunc(ctx, req)
}

func judgeResponse(text string) *openai.Response {
	return &openai.Response{
		Output: []openai.OutputItem{{
			Type:    "message",
			Content: []openai.ContentPart{{Type: "output_text", Text: text}},
		}},
	}
}

func TestRun(t *testing.T) {
	provider := &mockResponseProvider{
		createFunc: func(ctx context.Context, req *openai.ResponsesRequest) (*openai.Response, error) {
			return judgeResponse(`{"scores":[
				{"criterion":"accuracy","score":8,"rationale":"cites the record"},
				{"criterion":"depth","score":6,"rationale":"covers counterarguments"}
			]}`), nil
		},
	}
	runner := NewRunner(provider, []Criterion{
		{Name: "accuracy", Weight: 3},
		{Name: "depth", Weight: 1},
	}, "gpt-5.1")

	result, err := runner.Run(context.Background(), Input{
		Question:      "Who won?",
		DebateOutcome: "Side A won on evidence.",
		LiveResponse:  "Side B had better rhetoric.",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(result.Scores))
	}
	if result.Scores[0].Criterion != "accuracy" || result.Scores[0].Score != 8 || result.Scores[0].Weight != 3 {
		t.Errorf("accuracy score = %+v", result.Scores[0])
	}

	// (8*3 + 6*1) / 4 = 7.5
	if math.Abs(result.Total-7.5) > 1e-9 {
		t.Errorf("Total = %v, want 7.5", result.Total)
	}

	// The judge call is non-streaming and carries the rubric.
	if provider.lastReq.Model != "gpt-5.1" {
		t.Errorf("judge model = %q", provider.lastReq.Model)
	}
	if !strings.Contains(provider.lastReq.Instructions, "accuracy") {
		t.Errorf("instructions missing criteria: %q", provider.lastReq.Instructions)
	}
	if !strings.Contains(provider.lastReq.Input[0].Content, "Side A won on evidence.") {
		t.Errorf("comparison missing debate outcome: %q", provider.lastReq.Input[0].Content)
	}
}

func TestRun_ProviderError(t *testing.T) {
	provider := &mockResponseProvider{
		createFunc: func(ctx context.Context, req *openai.ResponsesRequest) (*openai.Response, error) {
			return nil, errors.New("boom")
		},
	}
	runner := NewRunner(provider, nil, "gpt-5.1")

	if _, err := runner.Run(context.Background(), Input{}); err == nil {
		t.Error("Run() error = nil, want judge call failure")
	}
}

func TestParseScores(t *testing.T) {
	runner := NewRunner(nil, []Criterion{
		{Name: "accuracy", Weight: 3},
		{Name: "clarity", Weight: 1},
	}, "gpt-5.1")

	t.Run("fenced json", func(t *testing.T) {
		scores, err := runner.parseScores("```json\n{\"scores\":[{\"criterion\":\"accuracy\",\"score\":7}]}\n```")
		if err != nil {
			t.Fatalf("parseScores() error = %v", err)
		}
		if scores[0].Score != 7 {
			t.Errorf("accuracy = %v, want 7", scores[0].Score)
		}
	})

	t.Run("bare fence", func(t *testing.T) {
		scores, err := runner.parseScores("```\n{\"scores\":[{\"criterion\":\"accuracy\",\"score\":5}]}\n```")
		if err != nil {
			t.Fatalf("parseScores() error = %v", err)
		}
		if scores[0].Score != 5 {
			t.Errorf("accuracy = %v, want 5", scores[0].Score)
		}
	})

	t.Run("skipped criterion scores zero", func(t *testing.T) {
		scores, err := runner.parseScores(`{"scores":[{"criterion":"accuracy","score":9}]}`)
		if err != nil {
			t.Fatalf("parseScores() error = %v", err)
		}
		if scores[1].Criterion != "clarity" || scores[1].Score != 0 {
			t.Errorf("clarity = %+v, want score 0", scores[1])
		}
	})

	t.Run("out-of-range scores clamped", func(t *testing.T) {
		scores, err := runner.parseScores(`{"scores":[{"criterion":"accuracy","score":15},{"criterion":"clarity","score":-3}]}`)
		if err != nil {
			t.Fatalf("parseScores() error = %v", err)
		}
		if scores[0].Score != 10 || scores[1].Score != 0 {
			t.Errorf("scores = %v, %v, want 10, 0", scores[0].Score, scores[1].Score)
		}
	})

	t.Run("criterion name match is case-insensitive", func(t *testing.T) {
		scores, err := runner.parseScores(`{"scores":[{"criterion":" Accuracy ","score":6}]}`)
		if err != nil {
			t.Fatalf("parseScores() error = %v", err)
		}
		if scores[0].Score != 6 {
			t.Errorf("accuracy = %v, want 6", scores[0].Score)
		}
	})

	t.Run("non-json verdict", func(t *testing.T) {
		if _, err := runner.parseScores("I think the debate side won."); err == nil {
			t.Error("parseScores() error = nil, want parse failure")
		}
	})
}

func TestWeightedTotal_ZeroWeights(t *testing.T) {
	if got := weightedTotal(nil); got != 0 {
		t.Errorf("weightedTotal(nil) = %v, want 0", got)
	}
}

func TestNewRunner_DefaultCriteria(t *testing.T) {
	runner := NewRunner(nil, nil, "gpt-5.1")
	if len(runner.criteria) != len(DefaultCriteria()) {
		t.Errorf("criteria = %d, want defaults", len(runner.criteria))
	}
}

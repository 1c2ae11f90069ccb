// Package evaluation scores a debate outcome against a live chat response
// across weighted criteria, using one non-streaming judge call.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agoralabs/agora/internal/api/openai"
	"github.com/agoralabs/agora/internal/domain"
)

// Criterion is one weighted rubric dimension.
type Criterion struct {
	Name   string  `json:"name" koanf:"name"`
	Weight float64 `json:"weight" koanf:"weight"`
}

// DefaultCriteria returns the rubric used when none is configured.
func DefaultCriteria() []Criterion {
	return []Criterion{
		{Name: "accuracy", Weight: 3},
		{Name: "depth", Weight: 2},
		{Name: "clarity", Weight: 2},
		{Name: "sourcing", Weight: 2},
		{Name: "responsiveness", Weight: 1},
	}
}

// ResponseProvider issues one non-streaming generation call.
type ResponseProvider interface {
	CreateResponse(ctx context.Context, req *openai.ResponsesRequest) (*openai.Response, error)
}

// Input is one evaluation comparison.
type Input struct {
	Question      string `json:"question"`
	DebateOutcome string `json:"debate_outcome"`
	LiveResponse  string `json:"live_response"`
}

// Result carries the parsed scores and their weighted total on a 0-10 scale.
type Result struct {
	Scores []domain.CriterionScore
	Total  float64
}

// Runner executes evaluations against the judge model.
type Runner struct {
	provider ResponseProvider
	criteria []Criterion
	model    string
	logger   *slog.Logger
}

// NewRunner creates a runner. Empty criteria fall back to DefaultCriteria.
func NewRunner(provider ResponseProvider, criteria []Criterion, model string) *Runner {
	if len(criteria) == 0 {
		criteria = DefaultCriteria()
	}
	return &Runner{
		provider: provider,
		criteria: criteria,
		model:    model,
		logger:   slog.Default(),
	}
}

// Run performs one judge call and aggregates the scores.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	req := &openai.ResponsesRequest{
		Model:        r.model,
		Instructions: r.buildInstructions(),
		Input: []openai.InputMessage{{
			Role:    "user",
			Content: r.buildComparison(in),
		}},
		Text: &openai.TextConfig{
			Format: &openai.TextFormat{Type: "text"},
		},
		Reasoning: &openai.ReasoningConfig{Effort: domain.EffortLow},
	}

	resp, err := r.provider.CreateResponse(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("judge call failed: %w", err)
	}

	scores, err := r.parseScores(resp.OutputText())
	if err != nil {
		return nil, err
	}

	return &Result{
		Scores: scores,
		Total:  weightedTotal(scores),
	}, nil
}

func (r *Runner) buildInstructions() string {
	var b strings.Builder
	b.WriteString("You are judging two answers to the same question: one produced by a ")
	b.WriteString("multi-agent debate, one by a single live chat response. ")
	b.WriteString("Score the debate outcome relative to the live response on each criterion ")
	b.WriteString("from 0 (live response far better) to 10 (debate outcome far better), 5 meaning parity.\n\n")
	b.WriteString("Criteria: ")
	for i, c := range r.criteria {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
	}
	b.WriteString("\n\nRespond with JSON only, in the form ")
	b.WriteString(`{"scores":[{"criterion":"<name>","score":<0-10>,"rationale":"<one sentence>"}]}`)
	b.WriteString(" covering every criterion.")
	return b.String()
}

func (r *Runner) buildComparison(in Input) string {
	return fmt.Sprintf("Question:\n%s\n\nDebate outcome:\n%s\n\nLive response:\n%s",
		in.Question, in.DebateOutcome, in.LiveResponse)
}

// judgeVerdict is the JSON shape the judge model is instructed to produce.
type judgeVerdict struct {
	Scores []struct {
		Criterion string  `json:"criterion"`
		Score     float64 `json:"score"`
		Rationale string  `json:"rationale"`
	} `json:"scores"`
}

// parseScores decodes the judge's verdict, tolerating fenced code blocks, and
// joins it with the configured weights. Criteria the judge skipped score 0.
func (r *Runner) parseScores(text string) ([]domain.CriterionScore, error) {
	text = stripCodeFence(text)

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(text), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse judge verdict: %w", err)
	}

	byName := make(map[string]struct {
		score     float64
		rationale string
	}, len(verdict.Scores))
	for _, s := range verdict.Scores {
		byName[strings.ToLower(strings.TrimSpace(s.Criterion))] = struct {
			score     float64
			rationale string
		}{clamp(s.Score, 0, 10), s.Rationale}
	}

	scores := make([]domain.CriterionScore, len(r.criteria))
	for i, c := range r.criteria {
		got := byName[strings.ToLower(c.Name)]
		scores[i] = domain.CriterionScore{
			Criterion: c.Name,
			Weight:    c.Weight,
			Score:     got.score,
			Rationale: got.rationale,
		}
	}

	return scores, nil
}

// weightedTotal normalizes by the weight sum so the total stays on the same
// 0-10 scale as the per-criterion scores.
func weightedTotal(scores []domain.CriterionScore) float64 {
	var sum, weights float64
	for _, s := range scores {
		sum += s.Score * s.Weight
		weights += s.Weight
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

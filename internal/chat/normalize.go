package chat

import (
	"fmt"
	"strings"

	"github.com/agoralabs/agora/internal/api/openai"
	"github.com/agoralabs/agora/internal/domain"
)

// effortNoneModel is the only model whose API accepts reasoning effort
// "none"; every other model silently falls back to "minimal".
const effortNoneModel = "gpt-5.1"

// BuildProviderRequest transforms an inbound chat request into the exact
// Responses API request the provider call expects: context snippets merged
// into the first user turn, reasoning effort coerced to what the model
// supports, and the web-search tool attached when enabled.
func BuildProviderRequest(req *domain.ChatRequest) *openai.ResponsesRequest {
	input := make([]openai.InputMessage, len(req.Messages))
	for i, m := range mergeContext(req.Messages, req.Context) {
		input[i] = openai.InputMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	providerReq := &openai.ResponsesRequest{
		Model:        req.Settings.Model,
		Instructions: req.SystemPrompt,
		Input:        input,
		Stream:       true,
		Text: &openai.TextConfig{
			Format:    &openai.TextFormat{Type: "text"},
			Verbosity: req.Settings.Verbosity,
		},
		Reasoning: &openai.ReasoningConfig{
			Effort:  coerceEffort(req.Settings.Model, req.Settings.ReasoningEffort),
			Summary: "detailed",
		},
		Include: []string{
			"reasoning.encrypted_content",
			"web_search_call.action.sources",
		},
	}

	if req.Settings.WebSearch {
		providerReq.Tools = []openai.Tool{{Type: "web_search"}}
	}

	return providerReq
}

// mergeContext prepends numbered context snippets to the first user message.
// Messages are returned unchanged when context is empty or no user turn
// exists; context is dropped rather than rejected in the latter case.
func mergeContext(messages []domain.Message, context []string) []domain.Message {
	if len(context) == 0 || len(messages) == 0 {
		return messages
	}

	userIdx := -1
	for i, m := range messages {
		if m.Role == "user" {
			userIdx = i
			break
		}
	}
	if userIdx == -1 {
		return messages
	}

	var b strings.Builder
	for i, c := range context {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Context %d]: %s", i+1, c)
	}
	b.WriteString("\n\n---\n\n")
	b.WriteString(messages[userIdx].Content)

	merged := make([]domain.Message, len(messages))
	copy(merged, messages)
	merged[userIdx].Content = b.String()
	return merged
}

// coerceEffort downgrades reasoning effort "none" for models that do not
// accept it. This is a provider capability constraint, not a client error,
// so no error is surfaced.
func coerceEffort(model, effort string) string {
	if effort == domain.EffortNone && model != effortNoneModel {
		return domain.EffortMinimal
	}
	return effort
}

package domain

// Message represents a single turn in a chat conversation.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", or "system"
	Content string `json:"content"`
}

// Reasoning effort levels accepted from the client.
const (
	EffortNone    = "none"
	EffortMinimal = "minimal"
	EffortLow     = "low"
	EffortMedium  = "medium"
	EffortHigh    = "high"
)

// ChatSettings carries the generation settings for a chat request.
type ChatSettings struct {
	Model           string `json:"model"`
	ReasoningEffort string `json:"reasoningEffort,omitempty"`
	Verbosity       string `json:"verbosity,omitempty"`
	WebSearch       bool   `json:"webSearch,omitempty"`
}

// ChatRequest is the inbound body for POST /api/chat. Context snippets, if
// present, are merged into the first user message before the provider call.
type ChatRequest struct {
	Messages     []Message    `json:"messages"`
	Settings     ChatSettings `json:"settings"`
	Context      []string     `json:"context,omitempty"`
	SystemPrompt string       `json:"systemPrompt,omitempty"`
}

// Usage represents token usage totals reported by the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

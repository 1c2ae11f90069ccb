// Package openai provides the typed HTTP client for the provider's Responses
// API, including the streaming event union consumed by the chat adapter.
package openai

import (
	"encoding/json"
)

// ResponsesRequest represents a Responses API generation request.
type ResponsesRequest struct {
	Model        string           `json:"model"`
	Instructions string           `json:"instructions,omitempty"`
	Input        []InputMessage   `json:"input"`
	Stream       bool             `json:"stream,omitempty"`
	Text         *TextConfig      `json:"text,omitempty"`
	Reasoning    *ReasoningConfig `json:"reasoning,omitempty"`
	Tools        []Tool           `json:"tools,omitempty"`
	Include      []string         `json:"include,omitempty"`
}

// InputMessage is a single input turn.
type InputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextConfig configures the text output.
type TextConfig struct {
	Format    *TextFormat `json:"format,omitempty"`
	Verbosity string      `json:"verbosity,omitempty"`
}

// TextFormat selects the output format, e.g. {"type": "text"}.
type TextFormat struct {
	Type string `json:"type"`
}

// ReasoningConfig configures model reasoning and its streamed summary.
type ReasoningConfig struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Tool is a provider-side tool descriptor. Web search needs only a type.
type Tool struct {
	Type string `json:"type"`
}

// Usage represents token usage totals.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Source is a web-search result record. The provider attaches these in
// several places depending on event type; see chat.ExtractSearchSources.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// WebSearchAction describes what a web_search_call did.
type WebSearchAction struct {
	Type    string   `json:"type,omitempty"`
	Query   string   `json:"query,omitempty"`
	Sources []Source `json:"sources,omitempty"`
}

// ContentPart is a piece of an output message.
type ContentPart struct {
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Annotation is attached to output text; only url_citation annotations are
// surfaced downstream.
type Annotation struct {
	Type       string `json:"type"`
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
	StartIndex int    `json:"start_index,omitempty"`
	EndIndex   int    `json:"end_index,omitempty"`
}

// OutputItem is one item of a response's output array.
type OutputItem struct {
	Type    string           `json:"type"`
	ID      string           `json:"id,omitempty"`
	Status  string           `json:"status,omitempty"`
	Role    string           `json:"role,omitempty"`
	Content []ContentPart    `json:"content,omitempty"`
	Action  *WebSearchAction `json:"action,omitempty"`
	Results []Source         `json:"results,omitempty"`
}

// Response represents a complete Responses API response.
type Response struct {
	ID     string       `json:"id"`
	Object string       `json:"object,omitempty"`
	Model  string       `json:"model,omitempty"`
	Status string       `json:"status,omitempty"`
	Output []OutputItem `json:"output,omitempty"`
	Usage  *Usage       `json:"usage,omitempty"`
	Error  *APIError    `json:"error,omitempty"`
}

// OutputText concatenates the text parts of all message output items.
func (r *Response) OutputText() string {
	var text string
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				text += part.Text
			}
		}
	}
	return text
}

// Stream event type discriminants. The translation switch in internal/chat
// must decide a case for every constant here.
const (
	EventTypeOutputTextDelta           = "response.output_text.delta"
	EventTypeOutputTextDone            = "response.output_text.done"
	EventTypeOutputTextAnnotationAdded = "response.output_text.annotation.added"
	EventTypeReasoningSummaryDelta     = "response.reasoning_summary_text.delta"
	EventTypeReasoningSummaryDone      = "response.reasoning_summary_text.done"
	EventTypeWebSearchInProgress       = "response.web_search_call.in_progress"
	EventTypeWebSearchSearching        = "response.web_search_call.searching"
	EventTypeWebSearchCompleted        = "response.web_search_call.completed"
	EventTypeCompleted                 = "response.completed"
	EventTypeError                     = "error"
)

// StreamEvent is one decoded SSE event from the Responses API. The populated
// fields depend on Type; unknown types are forwarded with only Type set and
// ignored downstream.
type StreamEvent struct {
	Type        string           `json:"type"`
	Delta       string           `json:"delta,omitempty"`
	ItemID      string           `json:"item_id,omitempty"`
	OutputIndex int              `json:"output_index,omitempty"`
	Annotation  *Annotation      `json:"annotation,omitempty"`
	Item        *OutputItem      `json:"item,omitempty"`
	Action      *WebSearchAction `json:"action,omitempty"`
	Sources     []Source         `json:"sources,omitempty"`
	Response    *Response        `json:"response,omitempty"`
	Code        string           `json:"code,omitempty"`
	Message     string           `json:"message,omitempty"`
}

// StreamResult wraps an event or error from streaming.
type StreamResult struct {
	Event *StreamEvent
	Err   error
}

// ErrorResponse represents a Responses API error body.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError contains error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// ParseErrorResponse attempts to parse an error response from JSON.
func ParseErrorResponse(data []byte) (*APIError, error) {
	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return nil, err
	}
	if errResp.Error == nil {
		return nil, nil
	}
	return errResp.Error, nil
}

package domain

// Normalized stream event types emitted to the browser. Every event carries a
// "type" discriminant; "done" and "error" are terminal and are followed by
// nothing.
const (
	EventContent         = "content"
	EventThinking        = "thinking"
	EventThinkingDone    = "thinking_done"
	EventSearchStarted   = "search_started"
	EventSearchSearching = "search_searching"
	EventSearchCompleted = "search_completed"
	EventCitation        = "citation"
	EventContentDone     = "content_done"
	EventDone            = "done"
	EventError           = "error"
)

// SearchSource is a single web-search result surfaced to the client.
type SearchSource struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Citation anchors a URL citation to a span of the generated text.
type Citation struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// ContentEvent carries a text delta.
type ContentEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ThinkingEvent carries a reasoning-summary delta.
type ThinkingEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ThinkingDoneEvent signals the end of the reasoning summary.
type ThinkingDoneEvent struct {
	Type string `json:"type"`
}

// SearchStartedEvent signals that the model began a web-search call.
type SearchStartedEvent struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// SearchSearchingEvent signals that a web-search call is executing.
type SearchSearchingEvent struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// SearchCompletedEvent carries the sources found by a web-search call. Sources
// is always present on the wire, empty when none were discoverable.
type SearchCompletedEvent struct {
	Type    string         `json:"type"`
	Sources []SearchSource `json:"sources"`
}

// CitationEvent carries a URL citation annotation.
type CitationEvent struct {
	Type     string   `json:"type"`
	Citation Citation `json:"citation"`
}

// ContentDoneEvent signals the end of the text output.
type ContentDoneEvent struct {
	Type string `json:"type"`
}

// DoneEvent is the terminal success event, carrying usage totals.
type DoneEvent struct {
	Type  string `json:"type"`
	Usage *Usage `json:"usage,omitempty"`
}

// ErrorEvent is the terminal failure event.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewContentEvent(delta string) ContentEvent {
	return ContentEvent{Type: EventContent, Content: delta}
}

func NewThinkingEvent(delta string) ThinkingEvent {
	return ThinkingEvent{Type: EventThinking, Content: delta}
}

func NewThinkingDoneEvent() ThinkingDoneEvent {
	return ThinkingDoneEvent{Type: EventThinkingDone}
}

func NewSearchStartedEvent(id string) SearchStartedEvent {
	return SearchStartedEvent{Type: EventSearchStarted, ID: id}
}

func NewSearchSearchingEvent(id string) SearchSearchingEvent {
	return SearchSearchingEvent{Type: EventSearchSearching, ID: id}
}

// NewSearchCompletedEvent normalizes a nil source list to an empty one so the
// client always receives a "sources" array.
func NewSearchCompletedEvent(sources []SearchSource) SearchCompletedEvent {
	if sources == nil {
		sources = []SearchSource{}
	}
	return SearchCompletedEvent{Type: EventSearchCompleted, Sources: sources}
}

func NewCitationEvent(c Citation) CitationEvent {
	return CitationEvent{Type: EventCitation, Citation: c}
}

func NewContentDoneEvent() ContentDoneEvent {
	return ContentDoneEvent{Type: EventContentDone}
}

func NewDoneEvent(usage *Usage) DoneEvent {
	return DoneEvent{Type: EventDone, Usage: usage}
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Error: message}
}

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/agoralabs/agora/internal/api/openai"
	"github.com/agoralabs/agora/internal/domain"
	"github.com/agoralabs/agora/internal/server"
)

// StreamProvider opens one streaming generation call per request.
type StreamProvider interface {
	StreamResponse(ctx context.Context, req *openai.ResponsesRequest) (<-chan openai.StreamResult, error)
}

// TokenCounter estimates the prompt size of a request.
type TokenCounter interface {
	CountRequest(model, system string, messages []domain.Message) int
}

// Handler is the streaming chat adapter: it normalizes the inbound request,
// opens one provider stream, and translates provider events into the
// normalized SSE stream consumed by the browser.
type Handler struct {
	provider StreamProvider
	tokens   TokenCounter
	logger   *slog.Logger
}

// NewHandler creates a new chat handler.
func NewHandler(provider StreamProvider, tokens TokenCounter) *Handler {
	return &Handler{
		provider: provider,
		tokens:   tokens,
		logger:   slog.Default(),
	}
}

// HandleChat handles POST /api/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	requestID := server.GetRequestID(r.Context())

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Invalid request body", err.Error())
		return
	}

	h.logger.Info("chat request",
		slog.String("request_id", requestID),
		slog.String("model", req.Settings.Model),
		slog.Int("messages", len(req.Messages)),
		slog.Bool("web_search", req.Settings.WebSearch),
	)

	if h.tokens != nil {
		n := h.tokens.CountRequest(req.Settings.Model, req.SystemPrompt, req.Messages)
		server.AddLogField(r.Context(), "prompt_tokens", strconv.Itoa(n))
	}

	providerReq := BuildProviderRequest(&req)

	// The provider call inherits the request context, so a client disconnect
	// cancels the upstream generation as well.
	events, err := h.provider.StreamResponse(r.Context(), providerReq)
	if err != nil {
		h.logger.Error("provider stream error",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		h.writeError(w, http.StatusInternalServerError, "Failed to start stream", err.Error())
		return
	}

	ew, err := NewEventWriter(w, h.logger)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Streaming not supported", err.Error())
		return
	}

	h.translate(r.Context(), ew, events, requestID)
}

// translate consumes the provider event stream and forwards each event to the
// client in arrival order. Exactly one terminal event (done or error) is
// emitted, after which the stream is closed and remaining provider events are
// ignored.
func (h *Handler) translate(ctx context.Context, ew *EventWriter, events <-chan openai.StreamResult, requestID string) {
	// Web-search calls whose sources already went to the client, keyed by
	// item id. A call can surface sources through its lifecycle event, the
	// final response output, or both, and each call is tracked on its own.
	surfaced := make(map[string]bool)

	for result := range events {
		if result.Err != nil {
			// A canceled context means the client went away; close without
			// emitting since nobody is listening.
			if errors.Is(result.Err, context.Canceled) || ctx.Err() != nil {
				h.logger.Info("stream canceled by client", slog.String("request_id", requestID))
				ew.Close()
				return
			}
			h.logger.Error("stream event error",
				slog.String("request_id", requestID),
				slog.String("error", result.Err.Error()),
			)
			ew.Send(domain.NewErrorEvent(result.Err.Error()))
			ew.Close()
			return
		}

		ev := result.Event
		switch ev.Type {
		case openai.EventTypeOutputTextDelta:
			ew.Send(domain.NewContentEvent(ev.Delta))

		case openai.EventTypeReasoningSummaryDelta:
			ew.Send(domain.NewThinkingEvent(ev.Delta))

		case openai.EventTypeReasoningSummaryDone:
			ew.Send(domain.NewThinkingDoneEvent())

		case openai.EventTypeWebSearchInProgress:
			ew.Send(domain.NewSearchStartedEvent(ev.ItemID))

		case openai.EventTypeWebSearchSearching:
			ew.Send(domain.NewSearchSearchingEvent(ev.ItemID))

		case openai.EventTypeWebSearchCompleted:
			sources := ExtractSearchSources(ev)
			if len(sources) > 0 {
				surfaced[ev.ItemID] = true
			}
			ew.Send(domain.NewSearchCompletedEvent(sources))

		case openai.EventTypeOutputTextAnnotationAdded:
			if ev.Annotation != nil && ev.Annotation.Type == "url_citation" {
				ew.Send(domain.NewCitationEvent(domain.Citation{
					URL:        ev.Annotation.URL,
					Title:      ev.Annotation.Title,
					StartIndex: ev.Annotation.StartIndex,
					EndIndex:   ev.Annotation.EndIndex,
				}))
			}

		case openai.EventTypeOutputTextDone:
			ew.Send(domain.NewContentDoneEvent())

		case openai.EventTypeCompleted:
			// Sources sometimes only show up inside the final response's
			// output items. Surface every call that has not streamed its
			// sources yet before finishing.
			for _, call := range CompletionSearchSources(ev.Response) {
				if surfaced[call.ItemID] {
					continue
				}
				ew.Send(domain.NewSearchCompletedEvent(call.Sources))
			}
			var usage *domain.Usage
			if ev.Response != nil && ev.Response.Usage != nil {
				usage = &domain.Usage{
					InputTokens:  ev.Response.Usage.InputTokens,
					OutputTokens: ev.Response.Usage.OutputTokens,
					TotalTokens:  ev.Response.Usage.TotalTokens,
				}
			}
			ew.Send(domain.NewDoneEvent(usage))
			ew.Close()
			return

		case openai.EventTypeError:
			msg := ev.Message
			if msg == "" {
				msg = "provider error"
			}
			ew.Send(domain.NewErrorEvent(msg))
			ew.Close()
			return

		default:
			// Lifecycle events with no client-facing translation
			// (response.created, output_item.added, content_part deltas, ...)
		}
	}

	// Provider stream ended without a terminal event.
	if !ew.Closed() {
		h.logger.Warn("provider stream ended without terminal event", slog.String("request_id", requestID))
		ew.Send(domain.NewErrorEvent("stream ended unexpectedly"))
		ew.Close()
	}
}

// writeError writes the pre-stream failure body. Once streaming has begun,
// failures travel in-band as error events instead.
func (h *Handler) writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   message,
		"details": details,
	})
}

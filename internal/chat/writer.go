package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// streamState tracks the lifecycle of the outbound event stream.
type streamState int

const (
	stateOpen streamState = iota
	stateClosed
)

// EventWriter owns the HTTP response body as an SSE stream. Send and Close
// are no-ops once the stream is closed, so events arriving after a terminal
// condition are silently dropped instead of faulting. A single handler
// goroutine owns the writer; it is not safe for concurrent use.
type EventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *slog.Logger
	state   streamState
}

// NewEventWriter prepares the response for server-sent events and returns a
// writer for it. It fails when the underlying ResponseWriter cannot flush.
func NewEventWriter(w http.ResponseWriter, logger *slog.Logger) (*EventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported by response writer")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &EventWriter{
		w:       w,
		flusher: flusher,
		logger:  logger,
	}, nil
}

// Send writes one event as a `data: <json>` frame and flushes it. No-op when
// the stream is closed.
func (ew *EventWriter) Send(event any) {
	if ew.state == stateClosed {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		ew.logger.Error("failed to marshal stream event", slog.String("error", err.Error()))
		return
	}

	fmt.Fprintf(ew.w, "data: %s\n\n", data)
	ew.flusher.Flush()
}

// Close marks the stream closed. Idempotent; subsequent Send calls are
// dropped.
func (ew *EventWriter) Close() {
	ew.state = stateClosed
}

// Closed reports whether a terminal event has already shut the stream.
func (ew *EventWriter) Closed() bool {
	return ew.state == stateClosed
}

package chat

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agoralabs/agora/internal/domain"
)

// unflushableWriter hides httptest.ResponseRecorder's Flush method.
type unflushableWriter struct {
	http.ResponseWriter
}

func TestNewEventWriter(t *testing.T) {
	rec := httptest.NewRecorder()

	ew, err := NewEventWriter(rec, slog.Default())
	if err != nil {
		t.Fatalf("NewEventWriter() error = %v", err)
	}
	if ew.Closed() {
		t.Error("NewEventWriter() starts closed")
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
	if got := rec.Header().Get("Connection"); got != "keep-alive" {
		t.Errorf("Connection = %q, want keep-alive", got)
	}
	if got := rec.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Errorf("X-Accel-Buffering = %q, want no", got)
	}
}

func TestNewEventWriter_NoFlusher(t *testing.T) {
	w := unflushableWriter{httptest.NewRecorder()}

	if _, err := NewEventWriter(w, slog.Default()); err == nil {
		t.Error("NewEventWriter() error = nil, want streaming-unsupported error")
	}
}

func TestEventWriter_Send(t *testing.T) {
	rec := httptest.NewRecorder()
	ew, err := NewEventWriter(rec, slog.Default())
	if err != nil {
		t.Fatalf("NewEventWriter() error = %v", err)
	}

	ew.Send(domain.NewContentEvent("hello"))

	got := rec.Body.String()
	want := `data: {"type":"content","content":"hello"}` + "\n\n"
	if got != want {
		t.Errorf("Send() wrote %q, want %q", got, want)
	}
	if !rec.Flushed {
		t.Error("Send() did not flush")
	}
}

func TestEventWriter_SendAfterClose(t *testing.T) {
	rec := httptest.NewRecorder()
	ew, err := NewEventWriter(rec, slog.Default())
	if err != nil {
		t.Fatalf("NewEventWriter() error = %v", err)
	}

	ew.Send(domain.NewDoneEvent(nil))
	ew.Close()
	ew.Send(domain.NewContentEvent("late"))
	ew.Send(domain.NewErrorEvent("late error"))

	body := rec.Body.String()
	if strings.Contains(body, "late") {
		t.Errorf("Send() after Close wrote to the stream: %q", body)
	}
	if strings.Count(body, "data: ") != 1 {
		t.Errorf("expected exactly one frame, got %q", body)
	}
}

func TestEventWriter_CloseIdempotent(t *testing.T) {
	rec := httptest.NewRecorder()
	ew, err := NewEventWriter(rec, slog.Default())
	if err != nil {
		t.Fatalf("NewEventWriter() error = %v", err)
	}

	ew.Close()
	ew.Close()

	if !ew.Closed() {
		t.Error("Closed() = false after Close")
	}
}

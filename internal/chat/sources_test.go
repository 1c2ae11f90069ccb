package chat

import (
	"testing"

	"github.com/agoralabs/agora/internal/api/openai"
)

func TestExtractSearchSources(t *testing.T) {
	tests := []struct {
		name string
		ev   *openai.StreamEvent
		want []string
	}{
		{
			name: "top-level sources win",
			ev: &openai.StreamEvent{
				Sources: []openai.Source{{URL: "https://a.example"}},
				Item: &openai.OutputItem{
					Action: &openai.WebSearchAction{Sources: []openai.Source{{URL: "https://b.example"}}},
				},
			},
			want: []string{"https://a.example"},
		},
		{
			name: "item action sources",
			ev: &openai.StreamEvent{
				Item: &openai.OutputItem{
					Action: &openai.WebSearchAction{Sources: []openai.Source{{URL: "https://b.example"}}},
				},
			},
			want: []string{"https://b.example"},
		},
		{
			name: "event action sources",
			ev: &openai.StreamEvent{
				Action: &openai.WebSearchAction{Sources: []openai.Source{{URL: "https://c.example"}}},
			},
			want: []string{"https://c.example"},
		},
		{
			name: "item results fallback",
			ev: &openai.StreamEvent{
				Item: &openai.OutputItem{Results: []openai.Source{{URL: "https://d.example"}}},
			},
			want: []string{"https://d.example"},
		},
		{
			name: "nothing found",
			ev:   &openai.StreamEvent{Type: openai.EventTypeWebSearchCompleted},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSearchSources(tt.ev)
			if got == nil {
				t.Fatal("ExtractSearchSources() = nil, want non-nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractSearchSources() = %v, want %v", got, tt.want)
			}
			for i, url := range tt.want {
				if got[i].URL != url {
					t.Errorf("ExtractSearchSources()[%d].URL = %q, want %q", i, got[i].URL, url)
				}
			}
		})
	}
}

func TestExtractSearchSources_CarriesTitles(t *testing.T) {
	ev := &openai.StreamEvent{
		Sources: []openai.Source{{URL: "https://a.example", Title: "Source A"}},
	}
	got := ExtractSearchSources(ev)
	if len(got) != 1 || got[0].Title != "Source A" {
		t.Errorf("ExtractSearchSources() = %v, want title carried through", got)
	}
}

func TestCompletionSearchSources(t *testing.T) {
	t.Run("one entry per web_search_call item", func(t *testing.T) {
		resp := &openai.Response{
			Output: []openai.OutputItem{
				{Type: "message"},
				{
					Type:   "web_search_call",
					ID:     "ws_1",
					Action: &openai.WebSearchAction{Sources: []openai.Source{{URL: "https://a.example"}}},
				},
				{
					Type:    "web_search_call",
					ID:      "ws_2",
					Results: []openai.Source{{URL: "https://b.example"}},
				},
			},
		}

		got := CompletionSearchSources(resp)
		if len(got) != 2 {
			t.Fatalf("CompletionSearchSources() = %v, want 2 calls", got)
		}
		if got[0].ItemID != "ws_1" || got[0].Sources[0].URL != "https://a.example" {
			t.Errorf("first call = %+v", got[0])
		}
		if got[1].ItemID != "ws_2" || got[1].Sources[0].URL != "https://b.example" {
			t.Errorf("second call = %+v", got[1])
		}
	})

	t.Run("action sources preferred over results on the same item", func(t *testing.T) {
		resp := &openai.Response{
			Output: []openai.OutputItem{
				{
					Type:    "web_search_call",
					ID:      "ws_1",
					Action:  &openai.WebSearchAction{Sources: []openai.Source{{URL: "https://action.example"}}},
					Results: []openai.Source{{URL: "https://results.example"}},
				},
			},
		}

		got := CompletionSearchSources(resp)
		if len(got) != 1 || got[0].Sources[0].URL != "https://action.example" {
			t.Errorf("CompletionSearchSources() = %v, want action sources only", got)
		}
	})

	t.Run("nil response", func(t *testing.T) {
		if got := CompletionSearchSources(nil); got != nil {
			t.Errorf("CompletionSearchSources(nil) = %v, want nil", got)
		}
	})
}

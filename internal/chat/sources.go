package chat

import (
	"github.com/agoralabs/agora/internal/api/openai"
	"github.com/agoralabs/agora/internal/domain"
)

// ExtractSearchSources returns the sources attached to a web_search_call
// event. The provider's placement of the sources array is not stable across
// event shapes, so candidate locations are probed in order:
//
//  1. event.sources
//  2. event.item.action.sources
//  3. event.action.sources
//  4. event.item.results
//
// When no candidate yields sources the result is an empty, non-nil slice:
// the client relies on the search_completed event to leave its "searching"
// state even when nothing was found.
func ExtractSearchSources(ev *openai.StreamEvent) []domain.SearchSource {
	if len(ev.Sources) > 0 {
		return convertSources(ev.Sources)
	}
	if ev.Item != nil && ev.Item.Action != nil && len(ev.Item.Action.Sources) > 0 {
		return convertSources(ev.Item.Action.Sources)
	}
	if ev.Action != nil && len(ev.Action.Sources) > 0 {
		return convertSources(ev.Action.Sources)
	}
	if ev.Item != nil && len(ev.Item.Results) > 0 {
		return convertSources(ev.Item.Results)
	}
	return []domain.SearchSource{}
}

// CallSources pairs one web_search_call item with the sources it carried.
type CallSources struct {
	ItemID  string
	Sources []domain.SearchSource
}

// CompletionSearchSources scans a final response's output items for sources
// carried by web_search_call items, keyed by item so callers can tell which
// search call each list belongs to. The provider sometimes only attaches
// sources there, after the search-lifecycle events have already passed.
func CompletionSearchSources(resp *openai.Response) []CallSources {
	if resp == nil {
		return nil
	}
	var calls []CallSources
	for _, item := range resp.Output {
		if item.Type != "web_search_call" {
			continue
		}
		if item.Action != nil && len(item.Action.Sources) > 0 {
			calls = append(calls, CallSources{ItemID: item.ID, Sources: convertSources(item.Action.Sources)})
		} else if len(item.Results) > 0 {
			calls = append(calls, CallSources{ItemID: item.ID, Sources: convertSources(item.Results)})
		}
	}
	return calls
}

func convertSources(in []openai.Source) []domain.SearchSource {
	out := make([]domain.SearchSource, len(in))
	for i, s := range in {
		out[i] = domain.SearchSource{URL: s.URL, Title: s.Title}
	}
	return out
}

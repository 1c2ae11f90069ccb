// Package tokens estimates prompt sizes with tiktoken, falling back to a
// character-based estimate for models without a known encoding.
package tokens

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/agoralabs/agora/internal/domain"
)

// estimatorCharsPerToken is the fallback ratio for unknown models.
const estimatorCharsPerToken = 4

// Counter counts prompt tokens. Codecs are cached per encoding.
type Counter struct {
	cacheMu    sync.RWMutex
	codecCache map[tokenizer.Encoding]tokenizer.Codec
}

// NewCounter creates a new counter.
func NewCounter() *Counter {
	return &Counter{
		codecCache: make(map[tokenizer.Encoding]tokenizer.Codec),
	}
}

// CountRequest estimates the prompt token count for a chat request: system
// prompt plus every message, with the per-message overhead chat models add.
func (c *Counter) CountRequest(model, system string, messages []domain.Message) int {
	codec := c.getCodec(model)

	// 3 tokens per message plus 1 for the role, plus assistant priming
	const tokensPerMessage = 3
	const tokensPerRole = 1

	total := 0
	if system != "" {
		total += tokensPerMessage + tokensPerRole + c.countText(codec, system)
	}
	for _, msg := range messages {
		total += tokensPerMessage + tokensPerRole + c.countText(codec, msg.Content)
	}
	total += 3 // assistant priming

	return total
}

// CountText counts tokens in a plain string.
func (c *Counter) CountText(model, text string) int {
	return c.countText(c.getCodec(model), text)
}

func (c *Counter) countText(codec tokenizer.Codec, text string) int {
	if codec == nil {
		return len(text) / estimatorCharsPerToken
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return len(text) / estimatorCharsPerToken
	}
	return len(ids)
}

// getCodec returns the codec for a model, or nil when no encoding is known
// and the estimator should be used.
func (c *Counter) getCodec(model string) tokenizer.Codec {
	encoding, ok := modelEncoding(model)
	if !ok {
		return nil
	}

	c.cacheMu.RLock()
	if cached, ok := c.codecCache[encoding]; ok {
		c.cacheMu.RUnlock()
		return cached
	}
	c.cacheMu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil
	}

	c.cacheMu.Lock()
	c.codecCache[encoding] = codec
	c.cacheMu.Unlock()

	return codec
}

// modelEncoding maps model names to tiktoken encodings.
//
// Encoding reference:
// - O200kBase: gpt-5.x, gpt-4.1, gpt-4o, o-series reasoning models
// - Cl100kBase: gpt-4, gpt-3.5-turbo
func modelEncoding(model string) (tokenizer.Encoding, bool) {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase, true
	case strings.HasPrefix(model, "gpt-4"),
		strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase, true
	default:
		return "", false
	}
}

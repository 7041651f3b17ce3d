package ai

import (
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates prompt tokens with the cl100k encoding. Gemini does
// not publish its tokenizer; cl100k tracks it closely enough for budgeting.
type TokenCounter struct {
	codec tokenizer.Codec
}

func NewTokenCounter() *TokenCounter {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{codec: codec}
}

// Count returns the token count of text. Without a codec it falls back to
// roughly four characters per token.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.codec != nil {
		ids, _, err := c.codec.Encode(text)
		if err == nil {
			return len(ids)
		}
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}

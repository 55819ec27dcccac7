// Package tokenizer provides deterministic token counting for request
// cost estimation.
package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"
)

// Encoding is the fixed tiktoken encoding used for all estimates.
// Estimates only need to be a conservative, deterministic approximation,
// so a single vocabulary is used regardless of the requested model.
const Encoding = "cl100k_base"

// Counter counts tokens in a text string.
type Counter interface {
	// Count returns the number of tokens in text. Empty text counts as zero.
	Count(text string) int
}

// TiktokenCounter implements Counter using tiktoken-go with a fixed
// encoding. The encoder is constructed once and injected into consumers;
// it holds no per-request mutable state and is safe for concurrent use.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// New creates a TiktokenCounter with the fixed encoding.
func New() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the token count of text.
func (t *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

package report

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer defines the interface for token counting
type Tokenizer interface {
	CountTokens(text string) int
}

// tiktokenWrapper wraps tiktoken to implement our Tokenizer interface
type tiktokenWrapper struct {
	*tiktoken.Tiktoken
}

func (t *tiktokenWrapper) CountTokens(text string) int {
	tokens := t.Encode(text, nil, nil)
	return len(tokens)
}

// NewTokenizer returns a tokenizer for the given model. Models unknown to
// tiktoken fall back to the cl100k_base encoding, which is close enough
// for budget accounting.
func NewTokenizer(model string) (Tokenizer, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding for model %s: %v", model, err)
		}
	}
	return &tiktokenWrapper{encoding}, nil
}

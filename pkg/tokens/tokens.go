// Package tokens bounds prompt sizes using a real tokenizer instead of
// guessing from character counts.
package tokens

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding matches the tokenization of the chat models the pipeline
// targets closely enough for budgeting purposes.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens with a tiktoken encoding.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter creates a counter for the named encoding, or DefaultEncoding
// when name is empty.
func NewCounter(name string) (*Counter, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	return &Counter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// TrimBlocks drops trailing blocks until the joined text fits within budget
// tokens. Truncation is positional: earlier blocks always survive later ones.
// At least one block is kept so callers never lose the entire prompt body.
func (c *Counter) TrimBlocks(blocks []string, sep string, budget int) []string {
	if budget <= 0 || len(blocks) == 0 {
		return blocks
	}
	kept := blocks
	for len(kept) > 1 && c.Count(strings.Join(kept, sep)) > budget {
		kept = kept[:len(kept)-1]
	}
	return kept
}

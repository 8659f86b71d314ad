// Package jsonx recovers structured data from free-form language model
// output. Models prompted for JSON reliably emit near-JSON: markdown fences,
// surrounding prose, single quotes, trailing commas, or stray backslashes.
// ParseStructured narrows the raw text to its JSON span and then applies
// progressively more aggressive repair tiers, strict first, so that the least
// lossy interpretation always wins.
package jsonx

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// previewLimit bounds the diagnostic excerpt carried by ParseFailure.
const previewLimit = 200

// ParseFailure reports that the model output could not be coerced into a
// mapping after every repair tier was exhausted. It carries a truncated
// preview of the original text for diagnostics, never the full payload.
type ParseFailure struct {
	Preview string
	Err     error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse structured output: %v (preview: %q)", e.Err, e.Preview)
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

// invalidEscape matches a backslash together with the valid JSON escape tail
// that may follow it. A bare match (just the backslash) means the escape is
// invalid and must be doubled.
var invalidEscape = regexp.MustCompile(`\\(?:u[0-9a-fA-F]{4}|["\\/bfnrt])?`)

// ParseStructured parses possibly-malformed model output into a mapping.
// Empty input yields an empty mapping, not an error. Tiers, in order:
// strict JSON on the narrowed span, a structural repair pass, and finally a
// character-level escape fix followed by another repair pass. Text that is
// already valid JSON round-trips unchanged.
func ParseStructured(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{}, nil
	}

	narrowed := narrow(trimmed)

	if out, err := strictParse(narrowed); err == nil {
		return out, nil
	}

	if repaired, err := jsonrepair.JSONRepair(narrowed); err == nil {
		if out, err := strictParse(repaired); err == nil {
			return out, nil
		}
	}

	fixed := escapeInvalidBackslashes(narrowed)
	repaired, err := jsonrepair.JSONRepair(fixed)
	if err == nil {
		if out, serr := strictParse(repaired); serr == nil {
			return out, nil
		} else {
			err = serr
		}
	}

	return nil, &ParseFailure{Preview: truncate(trimmed, previewLimit), Err: err}
}

// narrow extracts the JSON span from the raw text. Three paths: a block
// fenced as JSON yields its interior; a generic fence yields the outermost
// brace span of the whole text when braces exist, otherwise the first fence
// interior; unfenced text yields its outermost brace span.
func narrow(trimmed string) string {
	if idx := strings.Index(lowerASCII(trimmed), "```json"); idx >= 0 {
		inner := trimmed[idx+len("```json"):]
		if end := strings.Index(inner, "```"); end >= 0 {
			inner = inner[:end]
		}
		return strings.TrimSpace(inner)
	}

	if idx := strings.Index(trimmed, "```"); idx >= 0 {
		if span, ok := braceSpan(trimmed); ok {
			return span
		}
		inner := trimmed[idx+len("```"):]
		if end := strings.Index(inner, "```"); end >= 0 {
			inner = inner[:end]
		}
		return strings.TrimSpace(inner)
	}

	if span, ok := braceSpan(trimmed); ok {
		return span
	}
	return trimmed
}

// lowerASCII lowercases A-Z only. Unicode-aware lowercasing can change byte
// length, which would desynchronize indices found in the lowered text from
// the original; restricting to ASCII keeps them aligned.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func braceSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return strings.TrimSpace(text[start : end+1]), true
}

func strictParse(text string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return map[string]any{}, nil
	}
	return out, nil
}

// escapeInvalidBackslashes doubles any backslash that does not begin a valid
// JSON escape sequence (quote, backslash, slash, b, f, n, r, t, or u plus
// four hex digits), so e.g. a stray `\alpha` survives as a literal backslash.
func escapeInvalidBackslashes(text string) string {
	return invalidEscape.ReplaceAllStringFunc(text, func(m string) string {
		if m == `\` {
			return `\\`
		}
		return m
	})
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

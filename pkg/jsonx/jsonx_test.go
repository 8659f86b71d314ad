package jsonx

import (
	"errors"
	"strings"
	"testing"
)

func TestParseStructuredStrictJSON(t *testing.T) {
	out, err := ParseStructured(`{"themes": [{"name": "graphs"}], "count": 2}`)
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	if out["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", out["count"])
	}
	themes, ok := out["themes"].([]any)
	if !ok || len(themes) != 1 {
		t.Errorf("themes = %v, want one entry", out["themes"])
	}
}

func TestParseStructuredEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		out, err := ParseStructured(raw)
		if err != nil {
			t.Fatalf("ParseStructured(%q) error = %v", raw, err)
		}
		if out == nil || len(out) != 0 {
			t.Errorf("ParseStructured(%q) = %v, want empty map", raw, out)
		}
	}
}

func TestParseStructuredJSONFence(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"gaps\": []}\n```\nLet me know if you need more."
	out, err := ParseStructured(raw)
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	if _, ok := out["gaps"]; !ok {
		t.Errorf("missing gaps key in %v", out)
	}
}

func TestParseStructuredJSONFenceCaseInsensitive(t *testing.T) {
	out, err := ParseStructured("```JSON\n{\"ok\": true}\n```")
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	if out["ok"] != true {
		t.Errorf("ok = %v, want true", out["ok"])
	}
}

func TestParseStructuredJSONFenceAfterNonASCIIProse(t *testing.T) {
	// Unicode-aware lowercasing changes byte length for runes like Ⱥ and İ,
	// which once desynchronized the fence index from the original text and
	// could slice out of range. The fence must survive any preceding prose.
	for _, prose := range []string{
		strings.Repeat("Ⱥ", 20),
		strings.Repeat("İ", 20),
		"Résumé of the analysis follows.",
	} {
		out, err := ParseStructured(prose + "\n```json\n{\"ok\": true}\n```")
		if err != nil {
			t.Fatalf("ParseStructured() with prose %q error = %v", prose[:4], err)
		}
		if out["ok"] != true {
			t.Errorf("ok = %v, want true", out["ok"])
		}
	}
}

func TestLowerASCII(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```JSON", "```json"},
		{"MiXeD 123", "mixed 123"},
		{"Ⱥİé", "Ⱥİé"},
	}
	for _, tt := range tests {
		got := lowerASCII(tt.in)
		if got != tt.want {
			t.Errorf("lowerASCII(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if len(got) != len(tt.in) {
			t.Errorf("lowerASCII(%q) changed length %d -> %d", tt.in, len(tt.in), len(got))
		}
	}
}

func TestParseStructuredGenericFencePrefersBraceSpan(t *testing.T) {
	// With a generic fence the outermost brace span of the whole text wins,
	// even when the braces sit outside the fence.
	raw := "prose {\"key\": \"value\"} more\n```\nnot json\n```"
	out, err := ParseStructured(raw)
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	if out["key"] != "value" {
		t.Errorf("key = %v, want value", out["key"])
	}
}

func TestParseStructuredGenericFenceInterior(t *testing.T) {
	raw := "```\n[1, 2, 3]\n```"
	_, err := ParseStructured(raw)
	if err == nil {
		t.Fatal("ParseStructured() expected error for non-mapping content")
	}
}

func TestParseStructuredProseAroundBraces(t *testing.T) {
	raw := "Sure! The result is {\"directions\": [{\"id\": \"dir_1\"}]} as requested."
	out, err := ParseStructured(raw)
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	if _, ok := out["directions"]; !ok {
		t.Errorf("missing directions key in %v", out)
	}
}

func TestParseStructuredNestedBraces(t *testing.T) {
	raw := "note {\"outer\": {\"inner\": {\"depth\": 3}}} done"
	out, err := ParseStructured(raw)
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	outer, ok := out["outer"].(map[string]any)
	if !ok {
		t.Fatalf("outer = %v, want map", out["outer"])
	}
	if _, ok := outer["inner"]; !ok {
		t.Errorf("missing inner key in %v", outer)
	}
}

func TestParseStructuredRepairsSingleQuotes(t *testing.T) {
	out, err := ParseStructured("{'name': 'federated learning', 'count': 4}")
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	if out["name"] != "federated learning" {
		t.Errorf("name = %v", out["name"])
	}
}

func TestParseStructuredRepairsTrailingComma(t *testing.T) {
	out, err := ParseStructured(`{"themes": ["a", "b",],}`)
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	themes, ok := out["themes"].([]any)
	if !ok || len(themes) != 2 {
		t.Errorf("themes = %v, want two entries", out["themes"])
	}
}

func TestParseStructuredRepairsInvalidEscape(t *testing.T) {
	// \alpha is not a valid JSON escape; the character-level tier doubles the
	// backslash so the literal survives.
	out, err := ParseStructured(`{"formula": "\alpha + \beta"}`)
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	got, _ := out["formula"].(string)
	if !strings.Contains(got, "alpha") || !strings.Contains(got, "beta") {
		t.Errorf("formula = %q, want content recovered", got)
	}
}

func TestParseStructuredKeepsValidEscapes(t *testing.T) {
	out, err := ParseStructured(`{"text": "line\nbreak é \"quoted\""}`)
	if err != nil {
		t.Fatalf("ParseStructured() error = %v", err)
	}
	got, _ := out["text"].(string)
	if !strings.Contains(got, "line\nbreak") || !strings.Contains(got, "é") {
		t.Errorf("text = %q, escapes not preserved", got)
	}
}

func TestParseStructuredFailureCarriesPreview(t *testing.T) {
	raw := strings.Repeat("definitely not json ", 20)
	_, err := ParseStructured(raw)
	if err == nil {
		t.Fatal("ParseStructured() expected error")
	}

	var failure *ParseFailure
	if !errors.As(err, &failure) {
		t.Fatalf("error type = %T, want *ParseFailure", err)
	}
	if len(failure.Preview) > previewLimit {
		t.Errorf("preview length = %d, want <= %d", len(failure.Preview), previewLimit)
	}
	if !strings.HasPrefix(raw, failure.Preview) {
		t.Errorf("preview %q is not a prefix of the input", failure.Preview)
	}
	if failure.Unwrap() == nil {
		t.Error("Unwrap() = nil, want underlying error")
	}
}

func TestEscapeInvalidBackslashes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare backslash doubled", `a\zb`, `a\\zb`},
		{"valid newline kept", `a\nb`, `a\nb`},
		{"valid unicode kept", `é`, `é`},
		{"short unicode doubled", `\u12`, `\\u12`},
		{"escaped quote kept", `\"x\"`, `\"x\"`},
		{"double backslash kept", `\\`, `\\`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeInvalidBackslashes(tt.in); got != tt.want {
				t.Errorf("escapeInvalidBackslashes(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNarrow(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence interior", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"json fence without close", "```json\n{\"a\":1}", `{"a":1}`},
		{"plain braces", `x {"a":1} y`, `{"a":1}`},
		{"no braces passthrough", "just words", "just words"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := narrow(tt.in); got != tt.want {
				t.Errorf("narrow(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

package prompt

import (
	"testing"
)

func TestBuilder(t *testing.T) {
	got := NewBuilder().
		AddLine("Title:").
		Add("body").
		AddFormat(" (%d items)", 3).
		Build()

	want := "Title:\nbody (3 items)"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuilderKeepsLiteralBraces(t *testing.T) {
	schema := `{"name": "{{value}}"}`
	got := NewBuilder().AddLine("Respond in JSON format:").AddLine(schema).Build()

	if got != "Respond in JSON format:\n"+schema+"\n" {
		t.Errorf("Build() = %q", got)
	}
}

func TestBuilderEmpty(t *testing.T) {
	if got := NewBuilder().Build(); got != "" {
		t.Errorf("Build() = %q, want empty", got)
	}
}

// Package prompt assembles model prompts from ordered parts. The node
// prompts embed literal JSON schema blocks, so assembly is plain
// concatenation rather than text/template, whose delimiters would collide
// with the braces.
package prompt

import (
	"fmt"
	"strings"
)

// Builder accumulates prompt parts in order.
type Builder struct {
	parts []string
}

// NewBuilder creates an empty prompt builder.
func NewBuilder() *Builder {
	return &Builder{
		parts: make([]string, 0),
	}
}

// Add appends a part verbatim.
func (b *Builder) Add(part string) *Builder {
	b.parts = append(b.parts, part)
	return b
}

// AddFormat appends a formatted part.
func (b *Builder) AddFormat(format string, args ...any) *Builder {
	return b.Add(fmt.Sprintf(format, args...))
}

// AddLine appends a part followed by a newline.
func (b *Builder) AddLine(part string) *Builder {
	return b.Add(part + "\n")
}

// Build returns the assembled prompt.
func (b *Builder) Build() string {
	return strings.Join(b.parts, "")
}

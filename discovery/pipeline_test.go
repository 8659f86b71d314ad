package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cortexlab/discovery/message"
	"github.com/cortexlab/discovery/paper"
)

// stubSearcher serves canned results keyed by query.
type stubSearcher struct {
	results map[string][]paper.Paper
	err     error
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, query string, limit, yearFrom, yearTo int) ([]paper.Paper, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

// stubHandle answers every prompt with a fixed reply and records prompts.
type stubHandle struct {
	name    string
	reply   string
	err     error
	prompts []string
}

func (h *stubHandle) Name() string { return h.name }

func (h *stubHandle) Generate(ctx context.Context, messages []*message.Message) (*message.Message, error) {
	for _, msg := range messages {
		h.prompts = append(h.prompts, msg.Text())
	}
	if h.err != nil {
		return nil, h.err
	}
	return message.NewMessage(message.RoleAssistant, h.reply), nil
}

// stubResolver hands out one handle per alias and records resolutions.
type stubResolver struct {
	handles  map[string]*stubHandle
	resolved []string
	temps    map[string]float64
}

func newStubResolver() *stubResolver {
	return &stubResolver{
		handles: make(map[string]*stubHandle),
		temps:   make(map[string]float64),
	}
}

func (r *stubResolver) resolve(name string, temperature float64) (ModelHandle, error) {
	r.resolved = append(r.resolved, name)
	r.temps[name] = temperature
	h, ok := r.handles[name]
	if !ok {
		return nil, fmt.Errorf("no stub handle for %q", name)
	}
	return h, nil
}

func intPtr(n int) *int { return &n }

func testPapers() []paper.Paper {
	return []paper.Paper{
		{ID: "p1", Title: "Graph transformers", Abstract: "We study graphs.", Year: intPtr(2022), CitationCount: intPtr(10)},
		{ID: "p2", Title: "Protein folding", Abstract: "Folding at scale.", Year: intPtr(2023), CitationCount: intPtr(50)},
		{ID: "p3", Title: "Sparse attention", Abstract: "Attention, sparsely.", CitationCount: intPtr(5)},
	}
}

const trendReply = "```json\n" + `{
  "themes": [
    {"name": "efficiency", "description": "d", "paper_count": 2, "representative_papers": ["Sparse attention"], "key_methods": ["pruning"]}
  ],
  "trends": {"hot_topics": ["sparse attention"], "declining": [], "steady": ["benchmarks"]},
  "saturation": {"well_explored": ["image classification"], "emerging": ["state space models"], "under_explored": ["long-context eval"]}
}` + "\n```"

const gapReply = `{"gaps": [{"id": "gap_1", "title": "Missing long-context eval", "description": "d", "category": "under_explored", "evidence": ["Sparse attention"], "potential_impact": "high", "confidence": 0.8}]}`

const directionReply = `{"directions": [
  {"id": "dir_1", "title": "Low", "feasibility_score": 5, "related_gap_ids": ["gap_1"]},
  {"id": "dir_2", "title": "High", "feasibility_score": 9, "related_gap_ids": ["gap_1"]},
  {"id": "dir_3", "title": "Mid", "feasibility_score": 7, "related_gap_ids": ["gap_1"]}
]}`

func fullStubResolver() *stubResolver {
	r := newStubResolver()
	r.handles["kimi"] = &stubHandle{name: "kimi", reply: trendReply}
	r.handles["gpt_oss"] = &stubHandle{name: "gpt_oss", reply: gapReply}
	r.handles["qwen"] = &stubHandle{name: "qwen", reply: directionReply}
	return r
}

func TestPipelineRunEndToEnd(t *testing.T) {
	resolver := fullStubResolver()
	searcher := &stubSearcher{results: map[string][]paper.Paper{
		"q1": testPapers(),
	}}

	p, err := New(resolver.resolve, searcher)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	state, err := p.Run(context.Background(), Input{
		DomainBoundaries: map[string]any{"field": "ML"},
		SearchQueries:    []string{"q1"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if state.RunID == "" {
		t.Error("RunID is empty")
	}
	if state.CurrentStep != StepDirectionsGenerated {
		t.Fatalf("CurrentStep = %q, want %q (error: %s)", state.CurrentStep, StepDirectionsGenerated, state.Err)
	}
	if len(state.Papers) != 3 {
		t.Errorf("papers = %d, want 3", len(state.Papers))
	}
	if len(state.Themes) != 1 {
		t.Errorf("themes = %d, want 1", len(state.Themes))
	}
	if state.Trends == nil || len(state.Trends.Saturation.UnderExplored) != 1 {
		t.Errorf("trends = %+v, want saturation folded in", state.Trends)
	}
	if len(state.Gaps) != 1 {
		t.Errorf("gaps = %d, want 1", len(state.Gaps))
	}
	if len(state.Directions) != 3 {
		t.Fatalf("directions = %d, want 3", len(state.Directions))
	}
	// Ranked by descending feasibility.
	if state.Directions[0].ID != "dir_2" || state.Directions[2].ID != "dir_1" {
		t.Errorf("direction order = %s, %s, %s", state.Directions[0].ID, state.Directions[1].ID, state.Directions[2].ID)
	}
	if len(state.Messages) != 4 {
		t.Errorf("trace entries = %d, want 4", len(state.Messages))
	}

	// Node/model bindings.
	if resolver.temps["kimi"] != 0.3 || resolver.temps["gpt_oss"] != 0.4 || resolver.temps["qwen"] != 0.5 {
		t.Errorf("temperatures = %v", resolver.temps)
	}
}

func TestPipelineRoutesFailureToEnd(t *testing.T) {
	resolver := fullStubResolver()
	searcher := &stubSearcher{err: errors.New("provider down")}

	p, err := New(resolver.resolve, searcher)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	state, err := p.Run(context.Background(), Input{SearchQueries: []string{"q1"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if state.CurrentStep != StepError {
		t.Fatalf("CurrentStep = %q, want %q", state.CurrentStep, StepError)
	}
	if !strings.HasPrefix(state.Err, "Literature search failed:") {
		t.Errorf("Err = %q", state.Err)
	}
	// Downstream nodes must never resolve a model after a failure.
	if len(resolver.resolved) != 0 {
		t.Errorf("resolved = %v, want none", resolver.resolved)
	}
	if len(state.Directions) != 0 {
		t.Errorf("directions = %d, want 0", len(state.Directions))
	}
}

func TestPipelineModelFailureBecomesState(t *testing.T) {
	resolver := fullStubResolver()
	resolver.handles["gpt_oss"] = &stubHandle{name: "gpt_oss", err: errors.New("all backends down")}
	searcher := &stubSearcher{results: map[string][]paper.Paper{"q1": testPapers()}}

	p, err := New(resolver.resolve, searcher)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	state, err := p.Run(context.Background(), Input{SearchQueries: []string{"q1"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if state.CurrentStep != StepError {
		t.Fatalf("CurrentStep = %q, want %q", state.CurrentStep, StepError)
	}
	if !strings.HasPrefix(state.Err, "Gap mining failed:") {
		t.Errorf("Err = %q", state.Err)
	}
	// Earlier results survive the failure.
	if len(state.Themes) != 1 {
		t.Errorf("themes = %d, want 1", len(state.Themes))
	}
	// qwen never runs.
	for _, name := range resolver.resolved {
		if name == "qwen" {
			t.Error("direction generator ran after gap miner failed")
		}
	}
}

func TestPipelineRequiresCollaborators(t *testing.T) {
	searcher := &stubSearcher{}
	if _, err := New(nil, searcher); err == nil {
		t.Error("New() with nil resolver expected error")
	}
	if _, err := New(newStubResolver().resolve, nil); err == nil {
		t.Error("New() with nil searcher expected error")
	}
}

package discovery

import (
	"fmt"

	"github.com/cortexlab/discovery/paper"
)

// Step tags the pipeline position a run has reached. StepError is the single
// universal failure signal callers inspect.
type Step string

const (
	StepStarted             Step = "started"
	StepPapersRetrieved     Step = "papers_retrieved"
	StepTrendsIdentified    Step = "trends_identified"
	StepGapsIdentified      Step = "gaps_identified"
	StepDirectionsGenerated Step = "directions_generated"
	StepError               Step = "error"
)

// Theme is one thematic cluster identified across the retrieved papers.
type Theme struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	PaperCount           int      `json:"paper_count"`
	RepresentativePapers []string `json:"representative_papers"`
	KeyMethods           []string `json:"key_methods"`
}

// Saturation classifies sub-topics by how thoroughly they are explored.
type Saturation struct {
	WellExplored  []string `json:"well_explored"`
	Emerging      []string `json:"emerging"`
	UnderExplored []string `json:"under_explored"`
}

// TrendReport summarizes momentum across the research area, including the
// saturation analysis the gap miner consumes.
type TrendReport struct {
	HotTopics  []string   `json:"hot_topics"`
	Declining  []string   `json:"declining"`
	Steady     []string   `json:"steady"`
	Saturation Saturation `json:"saturation"`
}

// Gap is a concrete research gap mined from papers and themes.
type Gap struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Evidence        []string `json:"evidence"`
	PotentialImpact string   `json:"potential_impact"`
	Confidence      float64  `json:"confidence"`
}

// Direction is an actionable research direction derived from gaps.
type Direction struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	NoveltyAngle       string   `json:"novelty_angle"`
	FeasibilityScore   int      `json:"feasibility_score"`
	ContributionType   string   `json:"contribution_type"`
	MinimumExperiments []string `json:"minimum_experiments"`
	ExpectedOutcomes   []string `json:"expected_outcomes"`
	RelatedGapIDs      []string `json:"related_gap_ids"`
	EstimatedTimeline  string   `json:"estimated_timeline"`
	RequiredResources  string   `json:"required_resources"`
}

// TraceEntry records one agent action in the run's append-only trace.
type TraceEntry struct {
	Type    string `json:"type"`
	Agent   string `json:"agent"`
	Content string `json:"content"`
}

const traceTypeAgentNote = "agent_note"

// State is the shared record threaded through the pipeline. Nodes never
// mutate it directly: they return a Delta and the orchestrator applies it,
// so each field has exactly one writer.
type State struct {
	RunID            string        `json:"run_id"`
	DomainBoundaries map[string]any `json:"domain_boundaries,omitempty"`
	SearchQueries    []string      `json:"search_queries"`
	Papers           []paper.Paper `json:"papers,omitempty"`
	Themes           []Theme       `json:"themes,omitempty"`
	Trends           *TrendReport  `json:"trends,omitempty"`
	Gaps             []Gap         `json:"gaps,omitempty"`
	Directions       []Direction   `json:"directions,omitempty"`
	CurrentStep      Step          `json:"current_step"`
	Err              string        `json:"error,omitempty"`
	Messages         []TraceEntry  `json:"messages"`
}

func (s *State) appendNote(agent, content string) {
	s.Messages = append(s.Messages, TraceEntry{
		Type:    traceTypeAgentNote,
		Agent:   agent,
		Content: content,
	})
}

// Delta is a typed state update. Each concrete delta writes only the fields
// its producing node owns, advances CurrentStep, and appends one trace entry.
type Delta interface {
	Apply(*State)
}

// PapersDelta is produced by the literature scout.
type PapersDelta struct {
	Papers []paper.Paper
}

func (d PapersDelta) Apply(s *State) {
	s.Papers = d.Papers
	s.CurrentStep = StepPapersRetrieved
	s.appendNote(nodeLiteratureScout, fmt.Sprintf("Found %d relevant papers", len(d.Papers)))
}

// TrendsDelta is produced by the trend synthesizer.
type TrendsDelta struct {
	Themes []Theme
	Trends *TrendReport
}

func (d TrendsDelta) Apply(s *State) {
	s.Themes = d.Themes
	s.Trends = d.Trends
	s.CurrentStep = StepTrendsIdentified
	s.appendNote(nodeTrendSynthesizer, fmt.Sprintf("Identified %d research themes", len(d.Themes)))
}

// GapsDelta is produced by the gap miner.
type GapsDelta struct {
	Gaps []Gap
}

func (d GapsDelta) Apply(s *State) {
	s.Gaps = d.Gaps
	s.CurrentStep = StepGapsIdentified
	s.appendNote(nodeGapMiner, fmt.Sprintf("Identified %d research gaps", len(d.Gaps)))
}

// DirectionsDelta is produced by the direction generator.
type DirectionsDelta struct {
	Directions []Direction
}

func (d DirectionsDelta) Apply(s *State) {
	s.Directions = d.Directions
	s.CurrentStep = StepDirectionsGenerated
	s.appendNote(nodeDirectionGenerator, fmt.Sprintf("Generated %d research directions", len(d.Directions)))
}

// ErrorDelta converts any node failure into data. It is the only delta every
// node may produce.
type ErrorDelta struct {
	Err string
}

func (d ErrorDelta) Apply(s *State) {
	s.Err = d.Err
	s.CurrentStep = StepError
}

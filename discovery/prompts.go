package discovery

import (
	"fmt"
	"strings"

	"github.com/cortexlab/discovery/paper"
	"github.com/cortexlab/discovery/pkg/tokens"
	"github.com/cortexlab/discovery/prompt"
)

const trendSchema = `{
    "themes": [
        {
            "name": "theme name",
            "description": "brief description",
            "paper_count": number,
            "representative_papers": ["paper titles"],
            "key_methods": ["method names"]
        }
    ],
    "trends": {
        "hot_topics": ["topics gaining momentum"],
        "declining": ["topics losing interest"],
        "steady": ["consistently researched areas"]
    },
    "saturation": {
        "well_explored": ["areas with lots of work"],
        "emerging": ["newer areas with less work"],
        "under_explored": ["potential opportunity areas"]
    }
}`

const gapSchema = `{
    "gaps": [
        {
            "id": "gap_1",
            "title": "short title",
            "description": "detailed description of the gap",
            "category": "under_explored|evaluation_blind_spot|robustness|data_constraint|methodological",
            "evidence": ["paper titles that support this gap"],
            "potential_impact": "high|medium|low",
            "confidence": 0.8
        }
    ]
}`

const directionSchema = `{
    "directions": [
        {
            "id": "dir_1",
            "title": "Clear, specific title",
            "description": "Detailed description of the research direction",
            "novelty_angle": "What makes this novel/different",
            "feasibility_score": 8,
            "contribution_type": "method|benchmark|analysis|application",
            "minimum_experiments": [
                "Experiment 1 description",
                "Experiment 2 description"
            ],
            "expected_outcomes": ["what you'd expect to achieve"],
            "related_gap_ids": ["gap_1"],
            "estimated_timeline": "3-6 months",
            "required_resources": "compute/data requirements"
        }
    ]
}`

// promptRenderer turns pipeline state into bounded prompt text. Paper blocks
// are capped positionally (first N papers, first M abstract characters) and,
// when a counter is present, trimmed to the token budget as well.
type promptRenderer struct {
	counter *tokens.Counter
	budget  int
}

// papersBlock serializes papers into the "Title/Year/Abstract" form the
// prompts expect. Missing fields render as the literal placeholders so the
// model sees consistent structure.
func (r *promptRenderer) papersBlock(papers []paper.Paper, maxPapers, abstractCap int, includeYear bool) string {
	if len(papers) > maxPapers {
		papers = papers[:maxPapers]
	}

	blocks := make([]string, 0, len(papers))
	for _, p := range papers {
		title := p.Title
		if title == "" {
			title = "Unknown"
		}
		abstract := p.Abstract
		if abstract == "" {
			abstract = "No abstract"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Title: %s\n", title)
		if includeYear {
			if p.Year != nil {
				fmt.Fprintf(&b, "Year: %d\n", *p.Year)
			} else {
				b.WriteString("Year: Unknown\n")
			}
		}
		fmt.Fprintf(&b, "Abstract: %s...", truncateRunes(abstract, abstractCap))
		blocks = append(blocks, b.String())
	}

	if r.counter != nil && r.budget > 0 {
		blocks = r.counter.TrimBlocks(blocks, "\n\n", r.budget)
	}
	return strings.Join(blocks, "\n\n")
}

// truncateRunes cuts on rune boundaries so a truncated abstract never ends
// mid-codepoint.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func trendPrompt(papersText string) string {
	return prompt.NewBuilder().
		AddLine("You are a research trend synthesizer. Analyze the following papers and identify major themes and trends in this research area.").
		AddLine("").
		AddLine("Papers (title, year, abstract):").
		AddLine(papersText).
		AddLine("").
		AddLine("Analyze these papers and identify:").
		AddLine("1. Major Themes: Group papers into thematic clusters (methods, datasets, evaluation approaches, applications)").
		AddLine("2. Current Trends: What's gaining traction? What methods/approaches are becoming popular?").
		AddLine("3. Saturation Indicators: Which areas seem well-explored vs under-explored?").
		AddLine("").
		AddLine("Respond in JSON format:").
		AddLine(trendSchema).
		Build()
}

func gapPrompt(domain, themesText, papersText, wellExplored, underExplored string) string {
	return prompt.NewBuilder().
		AddLine("You are a research gap mining expert. Based on the papers and identified themes, extract concrete research gaps and opportunities.").
		AddLine("").
		AddFormat("Research Domain: %s\n", domain).
		AddLine("").
		AddLine("Identified Themes:").
		AddLine(themesText).
		AddLine("").
		AddLine("Key Papers (with abstracts):").
		AddLine(papersText).
		AddLine("").
		AddLine("Saturation Analysis:").
		AddFormat("- Well explored: %s\n", wellExplored).
		AddFormat("- Under explored: %s\n", underExplored).
		AddLine("").
		AddLine("Identify research gaps by looking for:").
		AddLine("1. Limitations mentioned in paper abstracts").
		AddLine(`2. "Future work" suggestions`).
		AddLine("3. Cross-theme opportunities (combining approaches from different themes)").
		AddLine("4. Methodological gaps (missing baselines, incomplete evaluations)").
		AddLine("5. Data/benchmark gaps").
		AddLine("6. Generalization failures").
		AddLine("").
		AddLine("Respond in JSON format:").
		AddLine(gapSchema).
		AddLine("").
		AddLine("Identify 5-10 concrete, actionable research gaps.").
		Build()
}

func directionPrompt(domain, themesText, gapsText string) string {
	return prompt.NewBuilder().
		AddLine("You are a research direction generator. Convert identified research gaps into concrete, actionable research directions.").
		AddLine("").
		AddFormat("Research Domain: %s\n", domain).
		AddLine("").
		AddLine("Identified Themes:").
		AddLine(themesText).
		AddLine("").
		AddLine("Identified Gaps:").
		AddLine(gapsText).
		AddLine("").
		AddLine("For each promising gap, generate a research direction that a PhD student or researcher could pursue. Each direction should be:").
		AddLine("1. Specific and actionable").
		AddLine("2. Feasible within 3-6 months").
		AddLine("3. Novel enough to be publishable").
		AddLine("4. Clear about expected contribution").
		AddLine("").
		AddLine("Respond in JSON format:").
		AddLine(directionSchema).
		AddLine("").
		AddLine("Generate 5-8 diverse research directions ranked by feasibility and impact.").
		Build()
}

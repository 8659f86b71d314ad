package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cortexlab/discovery/pkg/jsonx"
)

// gapNode mines concrete research gaps from papers, themes, and the
// saturation analysis. It has no hard precondition: with partial inputs the
// prompt carries explicit placeholders instead.
type gapNode struct {
	resolve ResolveFunc
	render  *promptRenderer
	cfg     *Config
	logger  *slog.Logger
}

func (n *gapNode) Name() string { return nodeGapMiner }

func (n *gapNode) Run(ctx context.Context, s *State) Delta {
	n.logger.Info("mining gaps", "run_id", s.RunID, "themes", len(s.Themes), "papers", len(s.Papers))

	themesText := "No themes identified"
	if len(s.Themes) > 0 {
		raw, err := json.MarshalIndent(s.Themes, "", "  ")
		if err != nil {
			return ErrorDelta{Err: fmt.Sprintf("Gap mining failed: %v", err)}
		}
		themesText = string(raw)
	}

	papersText := n.render.papersBlock(s.Papers, n.cfg.GapPaperCap, n.cfg.GapAbstractCap, false)

	wellExplored := "None identified"
	underExplored := "None identified"
	if s.Trends != nil {
		if len(s.Trends.Saturation.WellExplored) > 0 {
			wellExplored = strings.Join(s.Trends.Saturation.WellExplored, ", ")
		}
		if len(s.Trends.Saturation.UnderExplored) > 0 {
			underExplored = strings.Join(s.Trends.Saturation.UnderExplored, ", ")
		}
	}

	domain, err := json.Marshal(s.DomainBoundaries)
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Gap mining failed: %v", err)}
	}

	text, err := generateText(ctx, n.resolve, "gpt_oss", 0.4,
		gapPrompt(string(domain), themesText, papersText, wellExplored, underExplored))
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Gap mining failed: %v", err)}
	}

	result, err := jsonx.ParseStructured(text)
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Gap mining failed: %v", err)}
	}
	gaps, err := decodeAs[[]Gap](result["gaps"])
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Gap mining failed: %v", err)}
	}

	n.logger.Info("gaps identified", "run_id", s.RunID, "gaps", len(gaps))
	return GapsDelta{Gaps: gaps}
}

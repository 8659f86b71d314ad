package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cortexlab/discovery/pkg/jsonx"
)

// trendNode clusters retrieved papers into themes and classifies momentum
// and saturation across the area.
type trendNode struct {
	resolve ResolveFunc
	render  *promptRenderer
	cfg     *Config
	logger  *slog.Logger
}

func (n *trendNode) Name() string { return nodeTrendSynthesizer }

func (n *trendNode) Run(ctx context.Context, s *State) Delta {
	if len(s.Papers) == 0 {
		return ErrorDelta{Err: "No papers to analyze"}
	}

	n.logger.Info("analyzing papers", "run_id", s.RunID, "papers", len(s.Papers))

	papersText := n.render.papersBlock(s.Papers, n.cfg.TrendPaperCap, n.cfg.TrendAbstractCap, true)
	text, err := generateText(ctx, n.resolve, "kimi", 0.3, trendPrompt(papersText))
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Trend synthesis failed: %v", err)}
	}

	result, err := jsonx.ParseStructured(text)
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Trend synthesis failed: %v", err)}
	}

	themes, err := decodeAs[[]Theme](result["themes"])
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Trend synthesis failed: %v", err)}
	}
	report, err := decodeAs[TrendReport](result["trends"])
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Trend synthesis failed: %v", err)}
	}
	// The model emits saturation as a sibling of trends; it lives on the
	// report so the gap miner reads one value.
	saturation, err := decodeAs[Saturation](result["saturation"])
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Trend synthesis failed: %v", err)}
	}
	report.Saturation = saturation

	n.logger.Info("themes identified", "run_id", s.RunID, "themes", len(themes))
	return TrendsDelta{Themes: themes, Trends: &report}
}

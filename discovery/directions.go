package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cortexlab/discovery/pkg/jsonx"
)

// directionNode converts mined gaps into actionable research directions.
// When no gaps survived upstream it falls back to theme-based generation,
// and hard-fails only when both gaps and themes are empty.
type directionNode struct {
	resolve ResolveFunc
	logger  *slog.Logger
}

func (n *directionNode) Name() string { return nodeDirectionGenerator }

func (n *directionNode) Run(ctx context.Context, s *State) Delta {
	if len(s.Gaps) == 0 {
		if len(s.Themes) == 0 {
			return ErrorDelta{Err: "No gaps or themes to generate directions from"}
		}
		n.logger.Warn("no gaps found, falling back to theme-based generation", "run_id", s.RunID)
	}

	gapsText := "No specific gaps identified."
	if len(s.Gaps) > 0 {
		raw, err := json.MarshalIndent(s.Gaps, "", "  ")
		if err != nil {
			return ErrorDelta{Err: fmt.Sprintf("Direction generation failed: %v", err)}
		}
		gapsText = string(raw)
	}
	themesText := "No specific themes identified."
	if len(s.Themes) > 0 {
		raw, err := json.MarshalIndent(s.Themes, "", "  ")
		if err != nil {
			return ErrorDelta{Err: fmt.Sprintf("Direction generation failed: %v", err)}
		}
		themesText = string(raw)
	}

	domain, err := json.Marshal(s.DomainBoundaries)
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Direction generation failed: %v", err)}
	}

	n.logger.Info("generating directions", "run_id", s.RunID, "gaps", len(s.Gaps))

	text, err := generateText(ctx, n.resolve, "qwen", 0.5,
		directionPrompt(string(domain), themesText, gapsText))
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Direction generation failed: %v", err)}
	}

	result, err := jsonx.ParseStructured(text)
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Direction generation failed: %v", err)}
	}
	directions, err := decodeAs[[]Direction](result["directions"])
	if err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Direction generation failed: %v", err)}
	}

	// Ties keep model order, so equally feasible directions stay ranked the
	// way the model proposed them.
	sort.SliceStable(directions, func(i, j int) bool {
		return directions[i].FeasibilityScore > directions[j].FeasibilityScore
	})

	n.logger.Info("directions generated", "run_id", s.RunID, "directions", len(directions))
	return DirectionsDelta{Directions: directions}
}

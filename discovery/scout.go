package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/cortexlab/discovery/paper"
)

// scoutNode retrieves literature for the run's search queries. It is the only
// node that talks to the search provider instead of a model.
type scoutNode struct {
	searcher Searcher
	cfg      *Config
	logger   *slog.Logger
}

func (n *scoutNode) Name() string { return nodeLiteratureScout }

func (n *scoutNode) Run(ctx context.Context, s *State) Delta {
	queries := s.SearchQueries
	if len(queries) == 0 {
		n.logger.Warn("no search queries provided", "run_id", s.RunID)
		return ErrorDelta{Err: "No search queries available"}
	}
	if len(queries) > n.cfg.MaxQueries {
		queries = queries[:n.cfg.MaxQueries]
	}

	n.logger.Info("searching literature", "run_id", s.RunID, "queries", len(queries))

	// Queries run concurrently but land in query order, so dedupe keeps the
	// earliest query's copy of a paper regardless of response timing.
	results := make([][]paper.Paper, len(queries))
	group, gctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		group.Go(func() error {
			papers, err := n.searcher.Search(gctx, query, n.cfg.PerQueryLimit, n.cfg.YearFrom, n.cfg.YearTo)
			if err != nil {
				return err
			}
			results[i] = papers
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return ErrorDelta{Err: fmt.Sprintf("Literature search failed: %v", err)}
	}

	var all []paper.Paper
	for _, papers := range results {
		all = append(all, papers...)
	}

	all = paper.Dedupe(all)
	paper.RankByCitations(all)
	if len(all) > n.cfg.MaxPapers {
		all = all[:n.cfg.MaxPapers]
	}

	return PapersDelta{Papers: all}
}

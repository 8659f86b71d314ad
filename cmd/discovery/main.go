// Package main is the entry point for the discovery CLI, which runs the
// research-gap discovery pipeline against a set of literature search queries.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexlab/discovery/config"
	"github.com/cortexlab/discovery/discovery"
	"github.com/cortexlab/discovery/llm"
	"github.com/cortexlab/discovery/pkg/logging"
	"github.com/cortexlab/discovery/pkg/telemetry"
	"github.com/cortexlab/discovery/scholar"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "discovery",
		Short:   "Discover research gaps from academic literature",
		Version: version,
		Long: `discovery runs a multi-stage agent pipeline over academic literature:
it retrieves papers for your search queries, synthesizes themes and trends,
mines concrete research gaps, and converts them into actionable research
directions ranked by feasibility.`,
	}
	root.PersistentFlags().String("config", "", "config file (default: ./discovery.yaml or ~/.config/discovery/discovery.yaml)")
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		queries  []string
		domain   map[string]string
		yearFrom int
		yearTo   int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the discovery pipeline",
		Example: `  discovery run --query "protein folding transformers" --query "alphafold limitations"
  discovery run --query "federated learning privacy" --domain field=ML --year-from 2020`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Root().PersistentFlags().GetString("config")
			return runPipeline(cmd.Context(), cfgFile, queries, domain, yearFrom, yearTo)
		},
	}

	cmd.Flags().StringArrayVar(&queries, "query", nil, "literature search query (repeatable)")
	cmd.Flags().StringToStringVar(&domain, "domain", nil, "domain boundary as key=value (repeatable)")
	cmd.Flags().IntVar(&yearFrom, "year-from", 0, "only include papers from this year onwards")
	cmd.Flags().IntVar(&yearTo, "year-to", 0, "only include papers up to this year")
	cmd.MarkFlagRequired("query")
	return cmd
}

func runPipeline(ctx context.Context, cfgFile string, queries []string, domain map[string]string, yearFrom, yearTo int) error {
	settings, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.WithComponent("cli")

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "discovery",
		ServiceVersion: version,
		Environment:    settings.Environment,
		Disable:        !settings.TelemetryEnabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	var cache *scholar.Cache
	if settings.CacheEnabled {
		cache = scholar.NewCache(&scholar.CacheConfig{
			Addr:     settings.RedisAddr,
			Password: settings.RedisPassword,
			DB:       settings.RedisDB,
			TTL:      settings.CacheTTL,
		})
	}
	searcher := scholar.New(&scholar.Config{
		APIKey: settings.SerpAPIKey,
		Cache:  cache,
	})

	resolver := llm.NewResolver(llm.Config{
		GroqAPIKey:      settings.GroqAPIKey,
		GoogleAPIKey:    settings.GoogleAPIKey,
		OpenAIAPIKey:    settings.OpenAIAPIKey,
		AnthropicAPIKey: settings.AnthropicAPIKey,
		FallbackBackend: settings.FallbackBackend,
		FallbackModel:   settings.FallbackModel,
		MaxTokens:       settings.MaxTokens,
	})
	resolve := discovery.ResolveFunc(func(name string, temperature float64) (discovery.ModelHandle, error) {
		return resolver.Resolve(name, temperature)
	})

	pipeline, err := discovery.New(resolve, searcher,
		discovery.WithMaxQueries(settings.MaxQueries),
		discovery.WithPerQueryLimit(settings.PerQueryLimit),
		discovery.WithMaxPapers(settings.MaxPapers),
		discovery.WithPromptTokenBudget(settings.PromptTokenBudget),
		discovery.WithYearRange(yearFrom, yearTo),
	)
	if err != nil {
		return err
	}

	boundaries := make(map[string]any, len(domain))
	for k, v := range domain {
		boundaries[k] = v
	}

	state, err := pipeline.Run(ctx, discovery.Input{
		DomainBoundaries: boundaries,
		SearchQueries:    queries,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if state.CurrentStep == discovery.StepError {
		return fmt.Errorf("pipeline failed: %s", state.Err)
	}
	return nil
}

// Package discovery implements the research-gap discovery pipeline: a
// sequence of agent nodes sharing one state record, each rendering a bounded
// prompt, invoking a resolved language model, and parsing its reply into
// structured results. Node failures become state, never errors, so the
// orchestrator routes every failure to the same terminal branch.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cortexlab/discovery/graph"
	"github.com/cortexlab/discovery/message"
	"github.com/cortexlab/discovery/paper"
	"github.com/cortexlab/discovery/pkg/logging"
	"github.com/cortexlab/discovery/pkg/telemetry"
	"github.com/cortexlab/discovery/pkg/tokens"
)

const discoveryStateKey = "__discovery_state"

// Node names double as the agent tags recorded in the trace.
const (
	nodeLiteratureScout    = "literature_scout"
	nodeTrendSynthesizer   = "trend_synthesizer"
	nodeGapMiner           = "gap_miner"
	nodeDirectionGenerator = "direction_generator"
)

// Searcher is the external literature search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, limit, yearFrom, yearTo int) ([]paper.Paper, error)
}

// ModelHandle is an invocable language model with failover already composed.
type ModelHandle interface {
	Name() string
	Generate(ctx context.Context, messages []*message.Message) (*message.Message, error)
}

// ResolveFunc maps a model alias and temperature to an invocable handle.
type ResolveFunc func(name string, temperature float64) (ModelHandle, error)

// Node is one stage of the pipeline. Run never returns an error: failures
// are represented by an ErrorDelta.
type Node interface {
	Name() string
	Run(ctx context.Context, s *State) Delta
}

// Input is what a caller supplies to start a run.
type Input struct {
	DomainBoundaries map[string]any
	SearchQueries    []string
}

// Pipeline wires the four agent nodes over the execution graph:
// scout -> trends -> gaps -> directions, with a gate after each node that
// routes an error step straight to the end.
type Pipeline struct {
	cfg    *Config
	nodes  []Node
	graph  *graph.Graph
	logger *slog.Logger
}

// New creates a fully wired discovery pipeline.
func New(resolve ResolveFunc, searcher Searcher, opts ...Option) (*Pipeline, error) {
	if resolve == nil {
		return nil, fmt.Errorf("discovery: model resolver is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("discovery: searcher is required")
	}

	cfg := applyOptions(opts)
	logger := logging.WithComponent("discovery_pipeline")

	renderer := &promptRenderer{budget: cfg.PromptTokenBudget}
	if cfg.PromptTokenBudget > 0 {
		counter, err := tokens.NewCounter("")
		if err != nil {
			logger.Warn("token counter unavailable, prompt budget disabled", "error", err)
		} else {
			renderer.counter = counter
		}
	}

	p := &Pipeline{
		cfg:    cfg,
		logger: logger,
	}
	p.nodes = []Node{
		&scoutNode{searcher: searcher, cfg: cfg, logger: logging.WithComponent(nodeLiteratureScout)},
		&trendNode{resolve: resolve, render: renderer, cfg: cfg, logger: logging.WithComponent(nodeTrendSynthesizer)},
		&gapNode{resolve: resolve, render: renderer, cfg: cfg, logger: logging.WithComponent(nodeGapMiner)},
		&directionNode{resolve: resolve, logger: logging.WithComponent(nodeDirectionGenerator)},
	}

	builder := graph.NewBuilder().
		AddNode("start", graph.NodeTypeStart, p.startNode).
		AddNode("end", graph.NodeTypeEnd, p.endNode)

	for i, node := range p.nodes {
		builder.AddNode(node.Name(), graph.NodeTypeAgent, p.agentNode(node))
		if i == 0 {
			builder.AddEdge("start", node.Name())
		}
		if i == len(p.nodes)-1 {
			builder.AddEdge(node.Name(), "end")
			continue
		}
		// A gate after each node routes an error step straight to the end;
		// the gate's "ok" branch feeds the next node.
		gate := node.Name() + "_gate"
		builder.AddConditionNode(gate, p.stepGate, map[string]string{
			"ok":    p.nodes[i+1].Name(),
			"error": "end",
		})
		builder.AddEdge(node.Name(), gate)
	}

	g := builder.SetStart("start").Build()
	p.graph = g
	return p, nil
}

// Run executes the pipeline and returns the terminal state. Err combined
// with CurrentStep == StepError is the failure signal; Run itself errors
// only on orchestration faults.
func (p *Pipeline) Run(ctx context.Context, input Input) (*State, error) {
	st := &State{
		RunID:            uuid.NewString(),
		DomainBoundaries: input.DomainBoundaries,
		SearchQueries:    input.SearchQueries,
		CurrentStep:      StepStarted,
	}

	ctx, span := telemetry.Tracer().Start(ctx, "discovery.run")
	p.logger.Info("pipeline run started", "run_id", st.RunID, "queries", len(st.SearchQueries))

	final, err := p.graph.Execute(ctx, graph.State{discoveryStateKey: st})
	if err != nil {
		telemetry.End(span, err)
		return nil, err
	}

	terminal, err := getState(final)
	telemetry.End(span, err)
	if err != nil {
		return nil, err
	}

	p.logger.Info("pipeline run completed",
		"run_id", terminal.RunID,
		"step", terminal.CurrentStep,
		"papers", len(terminal.Papers),
		"themes", len(terminal.Themes),
		"gaps", len(terminal.Gaps),
		"directions", len(terminal.Directions),
	)
	return terminal, nil
}

func (p *Pipeline) startNode(ctx context.Context, gs graph.State) (graph.State, error) {
	_, err := getState(gs)
	return gs, err
}

func (p *Pipeline) endNode(ctx context.Context, gs graph.State) (graph.State, error) {
	_, err := getState(gs)
	return gs, err
}

// agentNode adapts a pipeline node to the graph executor: it runs the node
// inside a span, applies the returned delta, and records error steps.
func (p *Pipeline) agentNode(n Node) graph.NodeFunc {
	return func(ctx context.Context, gs graph.State) (graph.State, error) {
		st, err := getState(gs)
		if err != nil {
			return gs, err
		}

		ctx, span := telemetry.Tracer().Start(ctx, "discovery."+n.Name())
		delta := n.Run(ctx, st)
		delta.Apply(st)

		if st.CurrentStep == StepError {
			p.logger.Error("node failed", "node", n.Name(), "run_id", st.RunID, "error", st.Err)
			telemetry.End(span, errors.New(st.Err))
		} else {
			telemetry.End(span, nil)
		}
		return gs, nil
	}
}

// stepGate routes an error step to the terminal node.
func (p *Pipeline) stepGate(ctx context.Context, gs graph.State) (string, error) {
	st, err := getState(gs)
	if err != nil {
		return "", err
	}
	if st.CurrentStep == StepError {
		return "error", nil
	}
	return "ok", nil
}

func getState(gs graph.State) (*State, error) {
	raw, ok := gs[discoveryStateKey]
	if !ok {
		return nil, fmt.Errorf("discovery state missing in graph")
	}
	st, ok := raw.(*State)
	if !ok {
		return nil, fmt.Errorf("invalid discovery state type")
	}
	return st, nil
}

// generateText resolves the node's model and sends one rendered prompt.
func generateText(ctx context.Context, resolve ResolveFunc, alias string, temperature float64, prompt string) (string, error) {
	handle, err := resolve(alias, temperature)
	if err != nil {
		return "", err
	}
	reply, err := handle.Generate(ctx, []*message.Message{
		message.NewMessage(message.RoleUser, prompt),
	})
	if err != nil {
		return "", err
	}
	return reply.Text(), nil
}

// decodeAs re-shapes one section of a parsed mapping into its typed form.
func decodeAs[T any](v any) (T, error) {
	var out T
	if v == nil {
		return out, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

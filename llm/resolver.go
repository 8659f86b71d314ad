// Package llm resolves model aliases to concrete backends and composes the
// primary/fallback invocation path used by every pipeline node.
package llm

import (
	"fmt"
	"log/slog"

	"github.com/cortexlab/discovery/pkg/logging"
	"github.com/cortexlab/discovery/provider"
	"github.com/cortexlab/discovery/provider/claude"
	"github.com/cortexlab/discovery/provider/gemini"
	"github.com/cortexlab/discovery/provider/groq"
	"github.com/cortexlab/discovery/provider/openai"
)

// Registry maps short aliases to concrete Groq model identifiers.
var Registry = map[string]string{
	"kimi":    "moonshotai/kimi-k2-instruct-0905", // 10k TPM
	"gpt_oss": "openai/gpt-oss-120b",              // 8k TPM
	"qwen":    "qwen/qwen3-32b",                   // 6k TPM
}

// DefaultAlias is used when a node names no model at all.
const DefaultAlias = "kimi"

// ResolveModel maps an alias to its registry entry, passes raw identifiers
// through unchanged, and substitutes the default alias for empty input.
func ResolveModel(name string) string {
	if name == "" {
		return Registry[DefaultAlias]
	}
	if id, ok := Registry[name]; ok {
		return id
	}
	return name
}

// Config carries the credentials and fallback selection the resolver needs.
// The Groq key is optional: without it every handle runs fallback-only. The
// fallback backend's key is mandatory; the pipeline cannot run without any
// language-model backend.
type Config struct {
	GroqAPIKey      string
	GoogleAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// FallbackBackend selects the secondary provider: "gemini" (default),
	// "openai", or "claude".
	FallbackBackend string
	// FallbackModel overrides the backend's default model.
	FallbackModel string

	MaxTokens int
}

// Resolver builds composed model handles from process-wide configuration.
type Resolver struct {
	cfg    Config
	logger *slog.Logger
}

// NewResolver creates a resolver over the given configuration.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{
		cfg:    cfg,
		logger: logging.WithComponent("llm_resolver"),
	}
}

// Resolve returns a handle for the named model (alias or raw identifier) at
// the given temperature. A missing or broken primary credential degrades to
// a fallback-only handle; only a fallback that cannot be constructed is an
// error.
func (r *Resolver) Resolve(name string, temperature float64) (*Handle, error) {
	model := ResolveModel(name)

	fallback, err := r.buildFallback(temperature)
	if err != nil {
		return nil, fmt.Errorf("llm: no usable fallback backend: %w", err)
	}

	if r.cfg.GroqAPIKey == "" {
		r.logger.Info("groq API key not configured, using fallback backend only",
			"fallback", fallback.Name())
		return NewHandle(nil, fallback, r.logger), nil
	}

	primary, err := groq.New(&groq.Config{
		APIKey:      r.cfg.GroqAPIKey,
		Model:       model,
		Temperature: temperature,
		MaxTokens:   r.cfg.MaxTokens,
	})
	if err != nil {
		r.logger.Warn("failed to initialise groq backend, using fallback only",
			"model", model, "error", err)
		return NewHandle(nil, fallback, r.logger), nil
	}

	r.logger.Debug("resolved model", "model", model, "temperature", temperature,
		"fallback", fallback.Name())
	return NewHandle(primary, fallback, r.logger), nil
}

func (r *Resolver) buildFallback(temperature float64) (provider.Provider, error) {
	backend := r.cfg.FallbackBackend
	if backend == "" {
		backend = "gemini"
	}

	switch backend {
	case "gemini":
		model := r.cfg.FallbackModel
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return gemini.New(&gemini.Config{
			APIKey:      r.cfg.GoogleAPIKey,
			Model:       model,
			Temperature: temperature,
			MaxTokens:   r.cfg.MaxTokens,
		})
	case "openai":
		return openai.New(&openai.Config{
			APIKey:      r.cfg.OpenAIAPIKey,
			Model:       r.cfg.FallbackModel,
			Temperature: temperature,
			MaxTokens:   int64(r.cfg.MaxTokens),
		})
	case "claude":
		return claude.New(&claude.Config{
			APIKey:      r.cfg.AnthropicAPIKey,
			Model:       r.cfg.FallbackModel,
			Temperature: temperature,
			MaxTokens:   int64(r.cfg.MaxTokens),
		})
	default:
		return nil, fmt.Errorf("unknown fallback backend %q", backend)
	}
}

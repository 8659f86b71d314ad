// Package config loads runtime settings from a config file and environment
// variables and validates them before anything touches the network.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Settings is the validated runtime configuration of the discovery CLI.
type Settings struct {
	// Provider credentials. Only the Groq key and the key of the configured
	// fallback backend are required for a run; the rest may stay empty.
	GroqAPIKey      string
	GoogleAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	SerpAPIKey      string

	FallbackBackend string // gemini, openai, or claude
	FallbackModel   string // empty selects the backend's default
	MaxTokens       int

	MaxQueries        int
	PerQueryLimit     int
	MaxPapers         int
	PromptTokenBudget int

	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	TelemetryEnabled bool
	Environment      string
}

// Load reads settings from the given config file (or discovery.yaml in the
// working directory and ~/.config/discovery when empty), layered under
// DISCOVERY_* environment variables. Provider API keys also bind to their
// conventional unprefixed names.
func Load(cfgFile string) (*Settings, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("discovery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "discovery"))
		}
	}

	v.SetEnvPrefix("DISCOVERY")
	v.AutomaticEnv()

	v.BindEnv("groq_api_key", "DISCOVERY_GROQ_API_KEY", "GROQ_API_KEY")
	v.BindEnv("google_api_key", "DISCOVERY_GOOGLE_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("openai_api_key", "DISCOVERY_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("anthropic_api_key", "DISCOVERY_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("serpapi_key", "DISCOVERY_SERPAPI_KEY", "SERPAPI_KEY")

	v.SetDefault("fallback_backend", "gemini")
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("max_queries", 5)
	v.SetDefault("per_query_limit", 20)
	v.SetDefault("max_papers", 50)
	v.SetDefault("prompt_token_budget", 0)
	v.SetDefault("cache_enabled", false)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", 12*time.Hour)
	v.SetDefault("telemetry_enabled", false)
	v.SetDefault("environment", "development")

	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; a malformed or explicitly named
		// missing one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	s := &Settings{
		GroqAPIKey:        v.GetString("groq_api_key"),
		GoogleAPIKey:      v.GetString("google_api_key"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		AnthropicAPIKey:   v.GetString("anthropic_api_key"),
		SerpAPIKey:        v.GetString("serpapi_key"),
		FallbackBackend:   v.GetString("fallback_backend"),
		FallbackModel:     v.GetString("fallback_model"),
		MaxTokens:         v.GetInt("max_tokens"),
		MaxQueries:        v.GetInt("max_queries"),
		PerQueryLimit:     v.GetInt("per_query_limit"),
		MaxPapers:         v.GetInt("max_papers"),
		PromptTokenBudget: v.GetInt("prompt_token_budget"),
		CacheEnabled:      v.GetBool("cache_enabled"),
		RedisAddr:         v.GetString("redis_addr"),
		RedisPassword:     v.GetString("redis_password"),
		RedisDB:           v.GetInt("redis_db"),
		CacheTTL:          v.GetDuration("cache_ttl"),
		TelemetryEnabled:  v.GetBool("telemetry_enabled"),
		Environment:       v.GetString("environment"),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks cross-field consistency of the settings.
func (s *Settings) Validate() error {
	v := NewValidator()

	v.ValidateOneOf("fallback_backend", s.FallbackBackend, "gemini", "openai", "claude")
	v.RequirePositive("max_tokens", s.MaxTokens)
	v.RequirePositive("max_queries", s.MaxQueries)
	v.RequirePositive("per_query_limit", s.PerQueryLimit)
	v.RequirePositive("max_papers", s.MaxPapers)
	v.RequireNonNegative("prompt_token_budget", s.PromptTokenBudget)
	if s.CacheEnabled {
		v.RequireNonEmpty("redis_addr", s.RedisAddr)
		v.ValidateDBNumber("redis_db", s.RedisDB)
	}

	return v.Error()
}

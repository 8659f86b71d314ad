package discovery

// Config bounds how much state the nodes feed into search calls and prompts.
// Caps are positional: the first N queries or papers survive, never a sample.
type Config struct {
	MaxQueries    int // how many search queries the scout issues
	PerQueryLimit int // results requested per query
	MaxPapers     int // papers kept after dedupe and ranking

	TrendPaperCap    int // papers serialized into the trend prompt
	TrendAbstractCap int // abstract characters per paper in the trend prompt
	GapPaperCap      int // papers serialized into the gap prompt
	GapAbstractCap   int // abstract characters per paper in the gap prompt

	// PromptTokenBudget caps rendered paper blocks by token count on top of
	// the character caps. Zero disables the tokenizer.
	PromptTokenBudget int

	YearFrom int // optional lower publication-year bound, zero means unset
	YearTo   int // optional upper publication-year bound, zero means unset
}

func defaultConfig() *Config {
	return &Config{
		MaxQueries:       5,
		PerQueryLimit:    20,
		MaxPapers:        50,
		TrendPaperCap:    30,
		TrendAbstractCap: 500,
		GapPaperCap:      20,
		GapAbstractCap:   400,
	}
}

// Option customises the pipeline configuration.
type Option func(*Config)

func applyOptions(opts []Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithMaxQueries caps how many search queries the literature scout issues.
func WithMaxQueries(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxQueries = n
		}
	}
}

// WithPerQueryLimit caps how many results each search query requests.
func WithPerQueryLimit(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.PerQueryLimit = n
		}
	}
}

// WithMaxPapers caps how many papers survive dedupe and ranking.
func WithMaxPapers(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxPapers = n
		}
	}
}

// WithYearRange restricts searches to the given publication years; zero on
// either side leaves that bound open.
func WithYearRange(from, to int) Option {
	return func(cfg *Config) {
		if from >= 0 {
			cfg.YearFrom = from
		}
		if to >= 0 {
			cfg.YearTo = to
		}
	}
}

// WithPromptTokenBudget enables token-count trimming of rendered paper
// blocks on top of the positional character caps.
func WithPromptTokenBudget(budget int) Option {
	return func(cfg *Config) {
		if budget > 0 {
			cfg.PromptTokenBudget = budget
		}
	}
}

// Package config loads the skill's configuration. Precedence is explicit
// env > .env file (loaded by the entrypoint) > defaults. Missing optional
// values are warned about once at startup and never fatal.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProviderName selects the upstream LLM service.
type ProviderName string

const (
	ProviderOpenAI ProviderName = "openai"
	ProviderClaude ProviderName = "claude"
)

type Config struct {
	Addr string

	// Upstream model call.
	Provider       ProviderName
	OpenAIAPIKey   string
	OpenAIModel    string
	ClaudeAPIKey   string
	ClaudeModel    string
	HTTPTimeout    time.Duration // client-side budget for the one model call
	HardDeadline   time.Duration // per-turn wall budget, under the platform's ~8s
	MaxTokens      int
	Temperature    float64
	HasTemperature bool

	// Conversation state tuning.
	MaxHistoryTurns int
	ShortQueryJA    int
	ShortQueryEN    int
	RepromptModulus int

	// Note service.
	NotesToken    string
	NotesVersion  string
	NotesTimeout  time.Duration
	SearchLimit   int
	SnippetChars  int
	MaxSnippets   int
	NotesParentID string
	NotesDBID     string

	// Durable store.
	S3Bucket string
	S3Prefix string

	// HTTP server.
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

// LoadFromEnv builds the configuration. Unparseable values silently keep
// their defaults; only an unknown provider name is coerced (to openai) with
// a warning left for WarnMissing.
func LoadFromEnv() Config {
	cfg := Config{
		Addr: envOr("PICO_ADDR", ":8080"),

		Provider:     ProviderName(strings.ToLower(envOr("PICO_PROVIDER", string(ProviderOpenAI)))),
		OpenAIAPIKey: envOr("OPENAI_API_KEY", ""),
		OpenAIModel:  envOr("OPENAI_MODEL", "gpt-5-chat-latest"),
		ClaudeAPIKey: envOr("ANTHROPIC_API_KEY", ""),
		ClaudeModel:  envOr("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		HTTPTimeout:  envDurationOr("PICO_HTTP_TIMEOUT", 2500*time.Millisecond),
		HardDeadline: envDurationOr("PICO_HARD_DEADLINE", 4800*time.Millisecond),
		MaxTokens:    envIntOr("PICO_MAX_TOKENS", 120),

		MaxHistoryTurns: envIntOr("PICO_MAX_HISTORY_TURNS", 6),
		ShortQueryJA:    envIntOr("PICO_SHORT_QUERY_JA", 15),
		ShortQueryEN:    envIntOr("PICO_SHORT_QUERY_EN", 20),
		RepromptModulus: envIntOr("PICO_REPROMPT_MODULUS", 4),

		NotesToken:    envOr("NOTION_TOKEN", ""),
		NotesVersion:  envOr("NOTION_VERSION", "2022-06-28"),
		NotesTimeout:  envDurationOr("PICO_NOTES_TIMEOUT", 2*time.Second),
		SearchLimit:   envIntOr("NOTION_SEARCH_LIMIT", 3),
		SnippetChars:  envIntOr("NOTION_SNIPPET_CHARS", 300),
		MaxSnippets:   envIntOr("PICO_MAX_SNIPPETS", 40),
		NotesParentID: envOr("NOTION_PARENT_PAGE_ID", ""),
		NotesDBID:     envOr("NOTION_DATABASE_ID", ""),

		S3Bucket: envOr("S3_BUCKET", ""),
		S3Prefix: envOr("S3_PREFIX", "Media"),

		ReadHeaderTimeout:   envDurationOr("PICO_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("PICO_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod: envDurationOr("PICO_SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if f, ok := envFloat("PICO_TEMPERATURE"); ok {
		cfg.Temperature = f
		cfg.HasTemperature = true
	} else if cfg.Provider == ProviderOpenAI {
		cfg.Temperature = 0.7
		cfg.HasTemperature = true
	}

	switch cfg.Provider {
	case ProviderOpenAI, ProviderClaude:
	default:
		cfg.Provider = ProviderOpenAI
	}

	// The model call budget must leave headroom under the turn deadline for
	// sanitization and response serialization.
	if cfg.HTTPTimeout >= cfg.HardDeadline {
		cfg.HTTPTimeout = cfg.HardDeadline / 2
	}

	return cfg
}

// APIKey returns the key for the selected provider.
func (c Config) APIKey() string {
	if c.Provider == ProviderClaude {
		return c.ClaudeAPIKey
	}
	return c.OpenAIAPIKey
}

// Model returns the model identifier for the selected provider.
func (c Config) Model() string {
	if c.Provider == ProviderClaude {
		return c.ClaudeModel
	}
	return c.OpenAIModel
}

// UpstreamName returns the selected provider's registry identifier. The
// user-facing setting says "claude"; the upstream client calls itself
// "anthropic".
func (c Config) UpstreamName() string {
	if c.Provider == ProviderClaude {
		return "anthropic"
	}
	return "openai"
}

// WarnMissing logs one warning per absent optional credential. The skill
// keeps running; affected features degrade at call time.
func (c Config) WarnMissing(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if c.APIKey() == "" {
		logger.Warn("model API key is missing", "provider", c.Provider)
	}
	if c.NotesToken == "" {
		logger.Warn("NOTION_TOKEN is missing, note features will fail")
	}
	if c.S3Bucket == "" {
		logger.Warn("S3_BUCKET is missing, cross-session persistence is disabled")
	}
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string) (float64, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	// Accept bare seconds ("2.5") for parity with the original deployment
	// as well as Go duration strings ("2500ms").
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

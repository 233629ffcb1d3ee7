package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds minimal runtime configuration. Extend as needed.
type Config struct {
	// Server (gateway only)
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LLM
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openai"` // only "openai" is supported
	OpenAIKey   string `env:"OPENAI_API_KEY"`
	LLMModel    string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	// Cache
	CacheProvider   string `env:"CACHE_PROVIDER" envDefault:"memory"` // "memory", "disk", "redis", "postgres" or "none"
	CachePath       string `env:"CACHE_PATH" envDefault:".cache/llm_cache.json"`
	CacheTTL        int    `env:"CACHE_TTL" envDefault:"0"`         // seconds; 0 means entries never expire
	CacheMaxEntries int    `env:"CACHE_MAX_ENTRIES" envDefault:"0"` // 0 means unbounded
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	DBURL           string `env:"DB_URL"`

	// Retry
	RetryMaxAttempts    int     `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryBaseDelayMs    int     `env:"RETRY_BASE_DELAY_MS" envDefault:"1000"`
	RetryMultiplier     float64 `env:"RETRY_MULTIPLIER" envDefault:"2.0"`
	RetryJitterFraction float64 `env:"RETRY_JITTER_FRACTION" envDefault:"0.25"`

	// Queue (optional cache-invalidation broadcast)
	QueueURL string `env:"QUEUE_URL"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// Validate rejects tuning values the rest of the system cannot run with.
// Called once at startup; a non-nil error here is fatal.
func (c Config) Validate() error {
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}
	if c.RetryBaseDelayMs < 0 {
		return fmt.Errorf("RETRY_BASE_DELAY_MS must not be negative, got %d", c.RetryBaseDelayMs)
	}
	if c.RetryMultiplier < 1 {
		return fmt.Errorf("RETRY_MULTIPLIER must be at least 1, got %g", c.RetryMultiplier)
	}
	if c.RetryJitterFraction < 0 || c.RetryJitterFraction > 1 {
		return fmt.Errorf("RETRY_JITTER_FRACTION must be in [0,1], got %g", c.RetryJitterFraction)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative, got %d", c.CacheTTL)
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must not be negative, got %d", c.CacheMaxEntries)
	}
	switch c.CacheProvider {
	case "memory", "disk", "redis", "postgres", "none":
	default:
		return fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: memory, disk, redis, postgres, none)", c.CacheProvider)
	}
	if c.LLMProvider != "openai" {
		return fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", c.LLMProvider)
	}
	return nil
}

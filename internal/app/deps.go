package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"smart-qa/internal/cache"
	"smart-qa/internal/config"
	"smart-qa/internal/executor"
	"smart-qa/internal/llm"
	"smart-qa/internal/logger"
	"smart-qa/internal/qa"
	"smart-qa/internal/queue"
	"smart-qa/internal/retry"
)

// Deps bundles common runtime dependencies for the CLI and gateway.
type Deps struct {
	Config      config.Config
	Log         *slog.Logger
	Cache       cache.Store
	LLM         llm.Client
	QA          *qa.Client
	Broadcaster queue.Broadcaster
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	// A .env file is optional; real deployments use process env.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return Deps{}, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	store, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	broadcaster, err := buildBroadcaster(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}

	policy := retry.Policy{
		MaxAttempts:    cfg.RetryMaxAttempts,
		BaseDelay:      time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		Multiplier:     cfg.RetryMultiplier,
		JitterFraction: cfg.RetryJitterFraction,
	}
	exec := executor.New(store, llmClient, policy, log)

	return Deps{
		Config:      cfg,
		Log:         log,
		Cache:       store,
		LLM:         llmClient,
		QA:          qa.New(exec),
		Broadcaster: broadcaster,
	}, nil
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Store, error) {
	opts := cache.Options{
		TTL:        time.Duration(cfg.CacheTTL) * time.Second,
		MaxEntries: cfg.CacheMaxEntries,
	}

	switch cfg.CacheProvider {
	case "memory":
		log.Info("using in-memory cache")
		return cache.NewMemoryStore(opts), nil
	case "disk":
		s, err := cache.NewDiskStore(cfg.CachePath, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize disk cache: %w", err)
		}
		log.Info("using disk cache", "path", cfg.CachePath)
		return s, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_PROVIDER=redis")
		}
		s, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, opts)
		if err != nil {
			log.Warn("redis unavailable, falling back to no-op cache", "err", err)
			return cache.NewNoOpStore(), nil
		}
		log.Info("using redis cache", "addr", cfg.RedisAddr)
		return s, nil
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when CACHE_PROVIDER=postgres")
		}
		s, err := cache.NewPostgres(cfg.DBURL, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres cache: %w", err)
		}
		log.Info("using postgres cache")
		return s, nil
	case "none":
		log.Info("caching disabled")
		return cache.NewNoOpStore(), nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s", cfg.CacheProvider)
	}
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}

func buildBroadcaster(cfg config.Config, log *slog.Logger) (queue.Broadcaster, error) {
	if cfg.QueueURL == "" {
		return queue.NewNoOpBroadcaster(), nil
	}
	nc, err := nats.Connect(cfg.QueueURL,
		nats.CustomReconnectDelay(func(attempts int) time.Duration {
			return retry.ExponentialBackoff(attempts, time.Second)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("cache invalidation broadcast enabled", "url", cfg.QueueURL)
	return queue.NewNATS(log, nc), nil
}

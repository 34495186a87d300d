package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ai/enrich"
	"github.com/spigell/resume-matcher/internal/ai/gateway"
	"github.com/spigell/resume-matcher/internal/ai/gemini"
	"github.com/spigell/resume-matcher/internal/analyzer"
	"github.com/spigell/resume-matcher/internal/cache"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/secrets"
	"github.com/spigell/resume-matcher/internal/store"
)

// mustSetup builds the logger and configuration shared by every command.
func mustSetup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting", zap.String("version", version), zap.Any("config", config))
	return logger, config
}

// newProvider returns nil when AI is disabled.
func newProvider(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Provider, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	switch strings.TrimSpace(strings.ToLower(cfg.Provider)) {
	case "", providerGateway:
		key, err := secrets.Load(secrets.Source{
			Name:  "gateway api key",
			File:  cfg.Gateway.APIKeyFile,
			Env:   "COHERE_API_KEY",
			Value: cfg.Gateway.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gateway.api-key-file, COHERE_API_KEY or RESUME_MATCHER_AI_GATEWAY_API_KEY)", err)
		}

		return gateway.New(gateway.Config{
			URL:               cfg.Gateway.URL,
			Model:             cfg.Gateway.Model,
			APIKey:            key,
			Temperature:       cfg.Gateway.Temperature,
			Timeout:           cfg.Gateway.Timeout,
			MaxPayloadBytes:   cfg.Gateway.MaxPayloadBytes,
			RequestsPerSecond: cfg.Gateway.RequestsPerSecond,
		}, gateway.WithLogger(log))

	case providerGemini:
		key, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
			Value: cfg.Gemini.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		return gemini.NewGenerator(ctx, gemini.Config{
			APIKey:      key,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Gemini.Temperature,
			MaxRetries:  cfg.Gemini.MaxRetries,
		}, log)

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// newCache attaches Redis when configured. An unreachable Redis is logged and
// the cache continues in memory only.
func newCache(ctx context.Context, cfg *CacheConfig, log *zap.Logger) *cache.Cache {
	opts := []cache.Option{cache.WithTTL(cfg.TTL), cache.WithLogger(log)}

	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		client, err := cache.NewRedisClient(ctx, url)
		if err != nil {
			log.Warn("redis cache unavailable, using memory only", zap.Error(err))
		} else {
			opts = append(opts, cache.WithRedis(client))
		}
	}

	return cache.New(opts...)
}

// newAnalyzer wires the cache and, unless disabled, the enrichment provider.
func newAnalyzer(ctx context.Context, config *Config, withAI bool, log *zap.Logger) (*analyzer.Service, error) {
	var enricher analyzer.Enricher
	if withAI {
		provider, err := newProvider(ctx, config.AI, log)
		if err != nil {
			return nil, fmt.Errorf("creating ai provider: %w", err)
		}
		if provider != nil {
			enricher = enrich.New(provider, log.Named("enrich"), 0,
				enrich.WithTimeout(config.AI.Timeout),
				enrich.WithMaxPayloadBytes(config.AI.MaxPayloadBytes),
			)
		}
	}

	return analyzer.New(newCache(ctx, config.Cache, log.Named("cache")), enricher, log.Named("analyzer")), nil
}

func openStore(ctx context.Context, cfg *StoreConfig) (*store.Store, error) {
	s, err := store.Open(ctx, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Path, err)
	}
	return s, nil
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

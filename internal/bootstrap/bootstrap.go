// Package bootstrap builds the services selected by configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/services"
)

// Model bundles the configured completion client and its embedder.
type Model struct {
	Client   services.ModelClient
	Embedder services.Embedder
}

// NewModel creates the backend named by cfg.Model.Provider and wraps it with
// deadlines, rate limiting and retries.
func NewModel(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Model, error) {
	log = logger.WithComponent(log, "model")

	var (
		client   services.ModelClient
		embedder services.Embedder
	)

	switch cfg.Model.Provider {
	case config.ProviderGemini:
		gemini, err := services.NewGeminiService(ctx, services.GeminiOptions{
			APIKey:         cfg.Model.Gemini.APIKey,
			Model:          cfg.Model.Gemini.Model,
			EmbeddingModel: cfg.Model.Gemini.EmbeddingModel,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini: %w", err)
		}
		client, embedder = gemini, gemini
	case config.ProviderOpenAI, config.ProviderOllama:
		endpoint := cfg.Model.OpenAI
		if cfg.Model.Provider == config.ProviderOllama {
			endpoint = cfg.Model.Ollama
		}
		oai, err := services.NewOpenAIService(services.OpenAIOptions{
			Name:           cfg.Model.Provider,
			APIKey:         endpoint.APIKey,
			BaseURL:        endpoint.BaseURL,
			Model:          endpoint.Model,
			EmbeddingModel: endpoint.EmbeddingModel,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s: %w", cfg.Model.Provider, err)
		}
		client, embedder = oai, oai
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}

	log.Info("model backend ready",
		zap.String("provider", cfg.Model.Provider),
		zap.Duration("timeout", cfg.Model.Timeout),
		zap.Int("max_retries", cfg.Model.MaxRetries),
	)

	return &Model{
		Client: services.NewResilientClient(client, services.ResilienceOptions{
			Timeout:           cfg.Model.Timeout,
			MaxRetries:        cfg.Model.MaxRetries,
			RetryDelay:        cfg.Model.RetryDelay,
			RequestsPerSecond: cfg.Model.RequestsPerSecond,
			Burst:             cfg.Model.Burst,
		}, log),
		Embedder: embedder,
	}, nil
}

// NewStorage returns the local or S3 file store and makes sure it is usable.
func NewStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.StorageService, error) {
	log = logger.WithComponent(log, "storage")

	var (
		storage services.StorageService
		err     error
	)
	switch cfg.Storage.Driver {
	case config.StorageS3:
		storage, err = services.NewS3Storage(ctx, services.S3Options{
			Endpoint:        cfg.Storage.S3.Endpoint,
			Region:          cfg.Storage.S3.Region,
			Bucket:          cfg.Storage.S3.Bucket,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			Prefix:          cfg.Storage.S3.Prefix,
		}, log)
		if err != nil {
			return nil, err
		}
	case config.StorageLocal, "":
		storage = services.NewStorageService(cfg.Storage.UploadPath, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if err := storage.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return storage, nil
}

// NewNotifier publishes to RabbitMQ when a broker URL is configured.
func NewNotifier(cfg *config.Config, log *zap.Logger) (services.StatusNotifier, error) {
	if cfg.Broker.URL == "" {
		return services.NewNoopNotifier(), nil
	}
	return services.NewAMQPNotifier(cfg.Broker.URL, cfg.Broker.Exchange, logger.WithComponent(log, "notifier"))
}

// NewTalentPool returns nil, nil when no Qdrant URL is configured.
func NewTalentPool(ctx context.Context, cfg *config.Config, embedder services.Embedder, log *zap.Logger) (services.TalentPool, error) {
	if !cfg.TalentPoolEnabled() {
		return nil, nil
	}
	log = logger.WithComponent(log, "talent_pool")

	store, err := services.NewQdrantService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		cfg.Qdrant.VectorSize,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Qdrant: %w", err)
	}
	if err := store.InitCollection(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize Qdrant collection: %w", err)
	}

	return services.NewTalentPool(store, embedder, services.NewTextChunker(0, 0), log), nil
}

// NewFetcher builds the job posting fetcher from cfg.Fetcher.
func NewFetcher(cfg *config.Config, log *zap.Logger) services.JobDescriptionFetcher {
	return services.NewJobDescriptionFetcher(cfg.Fetcher.Timeout, cfg.Fetcher.UserAgent, logger.WithComponent(log, "fetcher"))
}

// NewExtractor builds the response extractor with the configured log limit.
func NewExtractor(cfg *config.Config, log *zap.Logger) *services.ResponseExtractor {
	return services.NewResponseExtractor(logger.WithComponent(log, "extractor"), cfg.Model.MaxLogLength)
}

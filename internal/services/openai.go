package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

type OpenAIOptions struct {
	// Name labels the backend in logs and errors, e.g. "openai" or "ollama".
	Name           string
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Temperature    float64
}

// OpenAIService is a ModelClient and Embedder for any OpenAI-compatible API.
type OpenAIService interface {
	ModelClient
	Embedder
}

type openAIService struct {
	client      *openai.Client
	name        string
	model       string
	embedModel  string
	temperature float64
	logger      *zap.Logger
}

func NewOpenAIService(opts OpenAIOptions, log *zap.Logger) (OpenAIService, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("model name is required")
	}

	name := opts.Name
	if name == "" {
		name = "openai"
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(opts.BaseURL))
	}
	// Retries are owned by the resilient wrapper.
	requestOpts = append(requestOpts, option.WithMaxRetries(0))

	client := openai.NewClient(requestOpts...)

	return &openAIService{
		client:      &client,
		name:        name,
		model:       opts.Model,
		embedModel:  opts.EmbeddingModel,
		temperature: opts.Temperature,
		logger:      log,
	}, nil
}

func (o *openAIService) Name() string {
	return o.name
}

// Send implements ModelClient.
func (o *openAIService) Send(ctx context.Context, prompt string) (string, error) {
	o.logger.Debug("generating with chat completions",
		zap.String("provider", o.name),
		zap.String("model", o.model),
		zap.Int("prompt_length", len(prompt)),
	)

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", &ModelError{Provider: o.name, Message: "no choices in response"}
	}

	o.logger.Debug("chat completion received",
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

// GenerateEmbedding implements Embedder.
func (o *openAIService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if o.embedModel == "" {
		return nil, &ModelError{Provider: o.name, Message: "no embedding model configured"}
	}
	if len(text) > maxEmbeddingInput {
		text = text[:maxEmbeddingInput]
	}

	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(o.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, classifyModelError(o.name, fmt.Errorf("failed to generate embedding: %w", err))
	}

	if len(resp.Data) == 0 {
		return nil, &ModelError{Provider: o.name, Message: "empty embedding result"}
	}

	values := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		values[i] = float32(v)
	}

	return values, nil
}

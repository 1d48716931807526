package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// Client is the external completion capability consumed by executors.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configure the completion client.
type Options struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

type openAIClient struct {
	model       llms.Model
	temperature float64
	maxTokens   int
	logger      *zap.SugaredLogger
}

// NewClient returns a client talking to an openai-compatible completion
// endpoint.
func NewClient(opts Options) (Client, error) {
	llmOpts := []openai.Option{
		openai.WithModel(opts.Model),
	}
	if opts.APIKey != "" {
		llmOpts = append(llmOpts, openai.WithToken(opts.APIKey))
	}
	if opts.BaseURL != "" {
		llmOpts = append(llmOpts, openai.WithBaseURL(opts.BaseURL))
	}

	model, err := openai.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}

	return &openAIClient{
		model:       model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      zap.S().Named("llm"),
	}, nil
}

func (c *openAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return "", err
	}

	c.logger.Infow("completion received", "response_length", len(response))
	return response, nil
}

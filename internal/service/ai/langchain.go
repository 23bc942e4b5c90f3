package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/sysengio/wysechat/internal/config"
)

// langchainGenerator adapts any langchaingo model to the Generator
// capability.
type langchainGenerator struct {
	model    llms.Model
	provider string
	cfg      config.AIConfig
}

func newLangchainGenerator(ctx context.Context, cfg config.AIConfig) (*langchainGenerator, error) {
	var (
		model llms.Model
		err   error
	)

	switch cfg.Provider {
	case config.ProviderGoogle:
		opts := []googleai.Option{googleai.WithAPIKey(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, googleai.WithDefaultModel(cfg.Model))
		}
		model, err = googleai.New(ctx, opts...)

	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		model, err = openai.New(opts...)

	case config.ProviderOllama:
		opts := []ollama.Option{}
		if cfg.Model != "" {
			opts = append(opts, ollama.WithModel(cfg.Model))
		}
		if cfg.ServerURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
		}
		model, err = ollama.New(opts...)

	default:
		return nil, fmt.Errorf("provider %q is not langchain-backed", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	return &langchainGenerator{model: model, provider: cfg.Provider, cfg: cfg}, nil
}

// Generate issues a single completion call with system and user messages.
func (g *langchainGenerator) Generate(ctx context.Context, system, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userPrompt)},
		},
	}

	resp, err := g.model.GenerateContent(ctx, messages, g.callOptions()...)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", g.provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned an empty completion", g.provider)
	}

	content := resp.Choices[0].Content
	log.Printf("[ai] %s generated response, length=%d", g.provider, len(content))
	return content, nil
}

func (g *langchainGenerator) callOptions() []llms.CallOption {
	callOpts := make([]llms.CallOption, 0)

	if g.cfg.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*g.cfg.Temperature))
	}
	if g.cfg.TopP != nil {
		callOpts = append(callOpts, llms.WithTopP(*g.cfg.TopP))
	}
	if g.cfg.MaxTokens != nil {
		callOpts = append(callOpts, llms.WithMaxTokens(*g.cfg.MaxTokens))
	}

	return callOpts
}

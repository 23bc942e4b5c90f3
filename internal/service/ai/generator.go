package ai

import (
	"context"
	"fmt"

	"github.com/sysengio/wysechat/internal/config"
)

// Generator is the capability boundary to the generative-AI endpoint: one
// system prompt, one user prompt, one text completion. Implementations make
// exactly one outbound call per invocation; there is no retry, caching or
// streaming behind this interface.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// NewGenerator builds the configured provider. Provider validation already
// happened in config.Load, so an unknown name here is a programming error.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		return newArkGenerator(ctx, cfg)
	case config.ProviderGoogle, config.ProviderOpenAI, config.ProviderOllama:
		return newLangchainGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

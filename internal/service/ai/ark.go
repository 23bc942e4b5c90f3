package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/sysengio/wysechat/internal/config"
)

// arkGenerator drives a Volcengine Ark chat model through an eino chain.
type arkGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

func newArkGenerator(ctx context.Context, cfg config.AIConfig) (*arkGenerator, error) {
	chatModel, err := cfg.NewArkChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &arkGenerator{chain: runnable}, nil
}

// Generate runs one prompt through the compiled chain and returns the model
// output verbatim.
func (g *arkGenerator) Generate(ctx context.Context, system, userPrompt string) (string, error) {
	response, err := g.chain.Invoke(ctx, map[string]any{
		"system": system,
		"query":  userPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Printf("[ai] ark generated response, length=%d", len(response.Content))
	return response.Content, nil
}

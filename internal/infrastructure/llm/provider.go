package llm

import (
	"context"
	"fmt"

	"ccms/internal/config"
	"ccms/internal/ports"
)

// New returns the chat client for the configured provider.
func New(ctx context.Context, cfg config.LLMConfig) (ports.ChatClient, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg)
	case "gemini":
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

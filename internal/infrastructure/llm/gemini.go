package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"ccms/internal/config"
	"ccms/internal/ports"
)

// GeminiClient implements ports.ChatClient with Google's GenAI SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

var _ ports.ChatClient = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini-backed chat client.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini client misconfigured: api key is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.GeminiModel
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

// Complete generates a single response for the prompt.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("gemini client is nil")
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(defaultSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
	}
	if c.maxTokens > 0 {
		genCfg.MaxOutputTokens = c.maxTokens
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

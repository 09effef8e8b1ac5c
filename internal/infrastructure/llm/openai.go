package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"ccms/internal/config"
	"ccms/internal/ports"
)

const defaultSystemPrompt = "You are an expert casino content writer. Use only the facts you are given."

// OpenAIClient implements ports.ChatClient on top of langchaingo's OpenAI model.
type OpenAIClient struct {
	llm          *openai.LLM
	systemPrompt string
	temperature  float64
	maxTokens    int
}

var _ ports.ChatClient = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.LLMConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai client misconfigured: api key is empty")
	}

	model, err := openai.New(openAIOptions(cfg, cfg.Model)...)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}

	return &OpenAIClient{
		llm:          model,
		systemPrompt: defaultSystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
	}, nil
}

// Complete sends the prompt as a user message behind a fixed system prompt.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.llm == nil {
		return "", fmt.Errorf("openai client is nil")
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, safePrompt(c.systemPrompt)),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// NewEmbedder returns a langchaingo embedder backed by the OpenAI embeddings endpoint.
func NewEmbedder(cfg config.LLMConfig) (embeddings.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedder misconfigured: api key is empty")
	}

	opts := append(openAIOptions(cfg, cfg.Model), openai.WithEmbeddingModel(cfg.EmbeddingModel))
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai embedding model: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(model)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return embedder, nil
}

func openAIOptions(cfg config.LLMConfig, model string) []openai.Option {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return opts
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}

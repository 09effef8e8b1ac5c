package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ccms/internal/config"
)

func TestOpenAIClientComplete(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  Viage review body  "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer server.Close()

	client, err := NewOpenAIClient(config.LLMConfig{
		APIKey:      "sk-test",
		Model:       "gpt-4o",
		BaseURL:     server.URL,
		Temperature: 0.1,
		Timeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out, err := client.Complete(context.Background(), "write a review")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "Viage review body" {
		t.Fatalf("unexpected completion %q", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	messages, _ := gotBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(messages))
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), config.LLMConfig{Provider: "llama"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if _, err := NewOpenAIClient(config.LLMConfig{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestSafePrompt(t *testing.T) {
	t.Parallel()

	if safePrompt("   ") != defaultSystemPrompt {
		t.Fatalf("blank prompt must fall back to default")
	}
	if safePrompt(" custom ") != "custom" {
		t.Fatalf("prompt must be trimmed")
	}
}

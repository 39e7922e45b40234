package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/jovanglig/aigeniusresume/internal/config"
)

// CompletionClient sends one prompt to the model and returns its raw reply.
// Sampling temperature is always zero.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewCompletionClient builds the client for the configured provider.
func NewCompletionClient(ctx context.Context, cfg config.LLMConfig) (CompletionClient, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(ctx, cfg)
	case "deepseek", "openai":
		return NewOpenAICompatibleClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

type openAICompatibleClient struct {
	client    *resty.Client
	provider  string
	model     string
	timeout   time.Duration
	maxTokens int
}

// NewOpenAICompatibleClient talks to any /chat/completions endpoint, such as
// DeepSeek or OpenAI.
func NewOpenAICompatibleClient(cfg config.LLMConfig) CompletionClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &openAICompatibleClient{
		client:    client,
		provider:  cfg.Provider,
		model:     cfg.Model,
		timeout:   cfg.RequestTimeout,
		maxTokens: cfg.MaxOutputTokens,
	}
}

// Complete implements CompletionClient.
func (c *openAICompatibleClient) Complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
		"stream":      false,
	}
	if c.maxTokens > 0 {
		body["max_tokens"] = c.maxTokens
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(callCtx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", classifyCallError(ctx, callCtx, c.provider, c.timeout, err)
	}

	if resp.IsError() {
		message := gjson.Get(resp.String(), "error.message").String()
		if message == "" {
			message = resp.Status()
		}
		return "", &CompletionError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode(),
			Retryable:  retryableStatus(resp.StatusCode()),
			Cause:      errors.New(message),
		}
	}

	content := gjson.Get(resp.String(), "choices.0.message.content").String()
	log.Printf("📊 %s reply received: %d chars in %s\n", c.provider, len(content), time.Since(start).Round(time.Millisecond))

	if strings.TrimSpace(content) == "" {
		return "", &MalformedResponseError{Reason: "empty completion"}
	}

	return content, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// classifyCallError separates our own per-call timeout from caller
// cancellation and from transport failures.
func classifyCallError(parent, callCtx context.Context, provider string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &CompletionTimeoutError{Timeout: timeout, Cause: err}
	}
	return &CompletionError{Provider: provider, Retryable: true, Cause: err}
}

func retryableStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}

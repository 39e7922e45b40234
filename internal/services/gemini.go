package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/jovanglig/aigeniusresume/internal/config"
)

type geminiClient struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
	maxTokens int32
}

func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (CompletionClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiClient{
		client:    client,
		modelName: cfg.Model,
		timeout:   cfg.RequestTimeout,
		maxTokens: int32(cfg.MaxOutputTokens),
	}, nil
}

// Complete implements CompletionClient.
func (g *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}
	if g.maxTokens > 0 {
		genConfig.MaxOutputTokens = g.maxTokens
	}

	resp, err := g.client.Models.GenerateContent(callCtx, g.modelName, genai.Text(prompt), genConfig)
	if err != nil {
		if code, ok := geminiStatus(err); ok {
			return "", &CompletionError{
				Provider:   "gemini",
				StatusCode: code,
				Retryable:  retryableStatus(code),
				Cause:      err,
			}
		}
		return "", classifyCallError(ctx, callCtx, "gemini", g.timeout, err)
	}

	if resp == nil {
		return "", &MalformedResponseError{Reason: "empty completion"}
	}

	text := resp.Text()
	log.Printf("📊 gemini reply received: %d chars\n", len(text))

	if strings.TrimSpace(text) == "" {
		return "", &MalformedResponseError{Reason: "empty completion"}
	}

	return text, nil
}

func geminiStatus(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code, true
	}
	return 0, false
}

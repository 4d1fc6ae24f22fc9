// Package openai implements the text-generation port against an
// OpenAI-compatible chat completions API.
package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/voxprep/interview-evaluator/internal/adapter/ai/tokencount"
	"github.com/voxprep/interview-evaluator/internal/adapter/observability"
	"github.com/voxprep/interview-evaluator/internal/domain"
)

// Client implements domain.AIClient using the chat completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client

	// maxPromptTokens caps the combined prompt size; over-budget user
	// prompts are trimmed before any network call.
	maxPromptTokens int
}

// New constructs a Client for the given endpoint and model.
func New(baseURL, apiKey, model string, maxPromptTokens int) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpc: &http.Client{
			Timeout:   120 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxPromptTokens: maxPromptTokens,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chat issues one chat completion and returns the raw completion text.
func (c *Client) Chat(ctx domain.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: API key missing", domain.ErrInvalidArgument)
	}
	if c.maxPromptTokens > 0 {
		userPrompt = trimToBudget(c.model, systemPrompt, userPrompt, c.maxPromptTokens)
	}

	start := time.Now()
	observability.AIRequestsTotal.WithLabelValues("openai", "chat").Inc()
	defer func() {
		observability.AIRequestDuration.WithLabelValues("openai", "chat").Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("op=ai.chat: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("op=ai.chat: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("op=ai.chat: %v: %w", err, domain.ErrExternalService)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("op=ai.chat: read body: %v: %w", err, domain.ErrExternalService)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("op=ai.chat: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("chat completion returned non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("model", c.model))
		return "", fmt.Errorf("op=ai.chat: status %d: %w", resp.StatusCode, domain.ErrExternalService)
	}

	var out chatResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("op=ai.chat: decode response: %v: %w", err, domain.ErrExternalService)
	}
	if out.Error != nil {
		return "", fmt.Errorf("op=ai.chat: %s: %w", out.Error.Message, domain.ErrExternalService)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("op=ai.chat: empty completion: %w", domain.ErrExternalService)
	}
	return out.Choices[0].Message.Content, nil
}

// trimToBudget cuts the tail of the user prompt until system+user fits the
// token cap. The system prompt is never touched; a cap smaller than the
// system prompt alone empties the user prompt.
func trimToBudget(model, systemPrompt, userPrompt string, maxTokens int) string {
	total := tokencount.Estimate(model, systemPrompt+userPrompt)
	if total <= maxTokens {
		return userPrompt
	}
	orig := total
	runes := []rune(userPrompt)
	for total > maxTokens && len(runes) > 0 {
		keep := len(runes) * maxTokens / total
		if keep >= len(runes) {
			keep = len(runes) - 1
		}
		runes = runes[:keep]
		total = tokencount.Estimate(model, systemPrompt+string(runes))
	}
	slog.Warn("user prompt trimmed to token budget",
		slog.String("model", model),
		slog.Int("tokens", orig),
		slog.Int("limit", maxTokens))
	return string(runes)
}

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/domain"
	"github.com/kailas-cloud/medagent/internal/metrics"
)

// Completer is a language-model provider using the OpenAI-compatible chat completions API.
type Completer struct {
	client       *openai.Client
	defaultModel string
	provider     string
	logger       *zap.Logger
}

// Config holds the completion provider settings.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Provider     string
	// Timeout bounds a single HTTP round-trip. Zero means no client-side bound.
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Completer{
		client:       openai.NewClientWithConfig(clientCfg),
		defaultModel: cfg.DefaultModel,
		provider:     cfg.Provider,
		logger:       logger,
	}
}

// Complete implements domain.Completer: one system instruction, one user input, one response.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Instruction},
			{Role: openai.ChatMessageRoleUser, Content: req.Input},
		},
		Temperature: req.Temperature,
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)

	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		metrics.CompletionErrorsTotal.WithLabelValues(c.provider, model, "api_error").Inc()
		return domain.CompletionResult{}, parseAPIError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		metrics.CompletionErrorsTotal.WithLabelValues(c.provider, model, "empty_response").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProvider)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.provider, model).Observe(duration.Seconds())

	usage := resp.Usage
	if usage.TotalTokens > 0 {
		metrics.CompletionTokensTotal.WithLabelValues(c.provider, model, "prompt").Add(float64(usage.PromptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(c.provider, model, "completion").Add(float64(usage.CompletionTokens))
		metrics.CompletionTokensTotal.WithLabelValues(c.provider, model, "total").Add(float64(usage.TotalTokens))
	}

	c.logger.Debug("Completion received",
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return domain.CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrCompletionProvider.
func parseAPIError(err error) error {
	wrap := domain.ErrCompletionProvider

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("completion API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("completion request timed out: %w", wrap)
	}

	return fmt.Errorf("completion request failed: %v: %w", err, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (proxy error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

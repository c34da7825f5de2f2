package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/arborist/internal/domain"
	"github.com/kailas-cloud/arborist/internal/domain/criteria"
	"github.com/kailas-cloud/arborist/internal/domain/field"
	"github.com/kailas-cloud/arborist/internal/domain/translation"
	"github.com/kailas-cloud/arborist/internal/metrics"
)

// Translator turns prompts into criteria using an OpenAI-compatible chat completion API.
type Translator struct {
	client       *openai.Client
	model        string
	temperature  float32
	topP         float32
	maxTokens    int
	timeout      time.Duration
	instructions string
	provider     string
	logger       *zap.Logger
}

// Config holds the translator provider settings.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
	Timeout         time.Duration
	Provider        string
	Schema          field.Schema
	Logger          *zap.Logger
}

// NewTranslator creates an OpenAI-compatible translator.
func NewTranslator(cfg *Config) (*Translator, error) {
	instructions, err := BuildInstructions(cfg.Schema)
	if err != nil {
		return nil, err
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Translator{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		topP:         cfg.TopP,
		maxTokens:    cfg.MaxOutputTokens,
		timeout:      cfg.Timeout,
		instructions: instructions,
		provider:     cfg.Provider,
		logger:       cfg.Logger,
	}, nil
}

// Translate implements translation.Translator.
func (t *Translator) Translate(ctx context.Context, prompt string) (translation.Result, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: t.instructions},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: t.temperature,
		TopP:        t.topP,
		MaxTokens:   t.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := t.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		t.fail("api_error")
		return translation.Result{}, parseAPIError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		t.fail("empty_response")
		return translation.Result{}, fmt.Errorf("empty completion: %w", domain.ErrTranslationFailed)
	}

	content := resp.Choices[0].Message.Content
	set, err := criteria.ParseSet([]byte(stripCodeFence(content)))
	if err != nil {
		t.fail("malformed_response")
		t.logger.Warn("Translator returned malformed criteria",
			zap.String("model", t.model),
			zap.String("content", content),
			zap.Error(err),
		)
		return translation.Result{}, fmt.Errorf("%w: %w", domain.ErrTranslationFailed, err)
	}

	metrics.TranslatorRequestsTotal.WithLabelValues(t.provider, t.model, "success").Inc()
	metrics.TranslatorRequestDuration.WithLabelValues(t.provider, t.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.TranslatorTokensTotal.WithLabelValues(t.provider, t.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.TranslatorTokensTotal.WithLabelValues(t.provider, t.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	t.logger.Debug("Prompt translated",
		zap.String("model", t.model),
		zap.Int("criteria", set.Len()),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("took", duration),
	)

	return translation.Result{
		Criteria:         set,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

func (t *Translator) fail(errorType string) {
	metrics.TranslatorRequestsTotal.WithLabelValues(t.provider, t.model, "error").Inc()
	metrics.TranslatorErrorsTotal.WithLabelValues(t.provider, t.model, errorType).Inc()
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (t *Translator) HealthCheck(ctx context.Context) error {
	if _, err := t.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Model returns the configured model name.
func (t *Translator) Model() string { return t.model }

// stripCodeFence unwraps ```json ... ``` blocks some models emit despite JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrTranslatorProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrTranslatorProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("translator API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("translator API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("translator API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("translator request timed out: %w", wrap)
	}
	return fmt.Errorf("translator request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

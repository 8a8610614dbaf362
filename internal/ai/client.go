// Package ai implements the text-transform capability on top of an
// OpenAI-compatible chat completion API (OpenRouter, OpenAI, a local
// gateway — anything speaking the same protocol).
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	transformRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tale_server_transform_requests_total",
			Help: "Total number of text transform requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	transformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tale_server_transform_duration_seconds",
			Help:    "Histogram of transform request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	transformPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tale_server_transform_prompt_tokens",
			Help:    "Histogram of estimated prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
)

const transformSystemPrompt = "You are a careful literary editor. " +
	"Rewrite the text you are given according to the instruction. " +
	"Return only the rewritten text, with no preamble and no commentary."

// Config содержит настройки клиента нейросети.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// Client wraps the chat completion API as a TextTransformer.
type Client struct {
	api         *openai.Client
	model       string
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	encoder     *tiktoken.Tiktoken
	logger      *zap.Logger
}

// New создает новый экземпляр клиента нейросети.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("AI API key is not configured")
	}
	if cfg.Model == "" {
		return nil, errors.New("AI model is not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	// cl100k_base covers the chat models we route to; token counts are for
	// metrics only, so a mismatch is harmless.
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn("Failed to load tiktoken encoding, token metrics disabled", zap.Error(err))
		encoder = nil
	}

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		encoder:     encoder,
		logger:      logger.Named("AIClient"),
	}, nil
}

// Transform rewrites content according to the directive. Attempts are
// bounded; each attempt gets its own timeout derived from ctx.
func (c *Client) Transform(ctx context.Context, content, directive string) (string, error) {
	userPrompt := directive + "\n\n---\n\n" + content
	c.observePromptTokens(transformSystemPrompt + userPrompt)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt-1)):
			}
		}

		result, err := c.complete(ctx, userPrompt)
		if err == nil {
			transformRequests.WithLabelValues(c.model, "success").Inc()
			return result, nil
		}
		lastErr = err
		transformRequests.WithLabelValues(c.model, "error").Inc()
		c.logger.Warn("Transform attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
			zap.Error(err))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("transform failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) complete(ctx context.Context, userPrompt string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.api.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: transformSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	transformDuration.WithLabelValues(c.model).Observe(time.Since(started).Seconds())
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("AI API returned no choices")
	}
	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	if result == "" {
		return "", errors.New("AI API returned empty content")
	}
	return result, nil
}

func (c *Client) observePromptTokens(prompt string) {
	if c.encoder == nil {
		return
	}
	tokens := c.encoder.Encode(prompt, nil, nil)
	transformPromptTokens.WithLabelValues(c.model).Observe(float64(len(tokens)))
}

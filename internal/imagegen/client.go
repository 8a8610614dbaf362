// Package imagegen implements the image-generation capability against an
// HTTP image server that accepts a JSON prompt and returns raw image bytes.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var generateRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tale_server_image_requests_total",
		Help: "Total number of requests to the image generation API.",
	},
	[]string{"status"},
)

// Config содержит настройки клиента генерации изображений.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Ratio is the aspect ratio requested for every image.
	Ratio string
	// StyleSuffix is appended to every prompt to keep a consistent visual
	// style across a deployment.
	StyleSuffix string
}

// Client calls the image server.
type Client struct {
	http        *http.Client
	baseURL     string
	ratio       string
	styleSuffix string
	logger      *zap.Logger
}

type apiRequest struct {
	Prompt string `json:"prompt"`
	Ratio  string `json:"ratio"`
}

// New создает новый экземпляр клиента генерации изображений.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("image API base URL is not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Ratio == "" {
		cfg.Ratio = "2:3"
	}
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		ratio:       cfg.Ratio,
		styleSuffix: cfg.StyleSuffix,
		logger:      logger.Named("ImageGenClient"),
	}, nil
}

// Generate requests one image for the prompt and returns its bytes.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	fullPrompt := prompt + c.styleSuffix

	body, err := json.Marshal(apiRequest{Prompt: fullPrompt, Ratio: c.ratio})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	endpointURL := c.baseURL + "/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/*")

	resp, err := c.http.Do(req)
	if err != nil {
		generateRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		generateRequests.WithLabelValues("error").Inc()
		c.logger.Error("Image API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", data))
		return nil, fmt.Errorf("image API returned status %d: %s", resp.StatusCode, string(data))
	}
	if readErr != nil {
		generateRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}
	if len(data) == 0 {
		generateRequests.WithLabelValues("error").Inc()
		return nil, errors.New("image API returned empty data")
	}

	generateRequests.WithLabelValues("success").Inc()
	c.logger.Debug("Image generated", zap.Int("size_bytes", len(data)))
	return data, nil
}

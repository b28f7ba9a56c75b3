// internal/matching/embedding/client.go
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"referwell-matching/internal/common/config"
	stderrors "referwell-matching/internal/common/errors"
	commonhttp "referwell-matching/internal/common/http"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/common/metrics"
)

// Client calls an external embedding API. Every request carries an explicit
// timeout; failures are surfaced as retryable errors so callers can degrade
// to lexical/structured scoring instead of aborting the pipeline.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	client  *commonhttp.Client
	logger  logger.Logger
}

func NewClient(cfg config.EmbeddingConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: cfg.TimeoutDuration(),
		client:  commonhttp.NewClient(cfg.TimeoutDuration()),
		logger:  log.WithFields(map[string]interface{}{"component": "embedding"}),
	}
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestBody := map[string]interface{}{
		"model": c.model,
		"input": texts,
	}
	body, _ := json.Marshal(requestBody)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/embeddings", bytes.NewBuffer(body))
	if err != nil {
		return nil, stderrors.NewEmbeddingUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, stderrors.NewEmbeddingTimeoutError(c.model)
		}
		return nil, stderrors.NewEmbeddingUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		return nil, stderrors.NewEmbeddingUnavailableError(
			fmt.Errorf("embedding API returned status %d", resp.StatusCode))
	}

	var apiResponse struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		return nil, stderrors.NewEmbeddingUnavailableError(err)
	}
	if len(apiResponse.Data) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		return nil, stderrors.NewEmbeddingUnavailableError(
			fmt.Errorf("embedding API returned %d vectors for %d inputs", len(apiResponse.Data), len(texts)))
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues("ok").Inc()
	vectors := make([][]float64, len(texts))
	for i, d := range apiResponse.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

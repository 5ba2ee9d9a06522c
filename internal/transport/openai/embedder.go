// Package openai is the embedding provider transport. It speaks the
// OpenAI-compatible embeddings API, which Vertex and several gateways
// expose for multilingual embedding models.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/config"
	"github.com/wondercloudgenai/talentflow/internal/domain"
	"github.com/wondercloudgenai/talentflow/internal/metrics"
)

// Embedder computes text embeddings through an OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	logger     *zap.Logger
}

// NewEmbedder creates an embedding provider from configuration.
func NewEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		logger:     logger,
	}
}

// EmbedTexts embeds one group of texts in a single provider call. The
// result is positional: vector i belongs to texts[i]. Every vector is
// checked against the configured dimensionality before it is returned.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(string(e.model), "api_error").Inc()
		return nil, parseAPIError(err)
	}

	if len(resp.Data) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(string(e.model), "count_mismatch").Inc()
		return nil, fmt.Errorf("embedding response has %d vectors for %d texts: %w",
			len(resp.Data), len(texts), domain.ErrProviderError)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		if e.dimensions > 0 && len(item.Embedding) != e.dimensions {
			metrics.EmbeddingErrorsTotal.WithLabelValues(string(e.model), "dim_mismatch").Inc()
			return nil, fmt.Errorf("vector %d has %d dimensions, want %d: %w",
				i, len(item.Embedding), e.dimensions, domain.ErrEmbeddingDimMismatch)
		}
		vectors[item.Index] = item.Embedding
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(string(e.model)).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(string(e.model), "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(string(e.model), "total").Add(float64(resp.Usage.TotalTokens))
	}

	e.logger.Debug("embedded text group",
		zap.Int("texts", len(texts)),
		zap.Duration("duration", duration))

	return vectors, nil
}

// EmbedText embeds a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrProviderError.
func parseAPIError(err error) error {
	wrap := domain.ErrProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/config"
	"github.com/wondercloudgenai/talentflow/internal/domain"
	"github.com/wondercloudgenai/talentflow/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// embeddingResponse mirrors the OpenAI-compatible API embedding response.
type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func newTestEmbedder(t *testing.T, dimensions int, handler http.HandlerFunc) *Embedder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewEmbedder(config.EmbeddingConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "test-model",
		Dimensions: dimensions,
	}, zap.NewNop())
}

func TestEmbedTexts(t *testing.T) {
	vec1 := []float32{0.1, 0.2}
	vec2 := []float32{0.3, 0.4}

	emb := newTestEmbedder(t, 2, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		// Vectors come back out of order; positional match is by Index.
		resp := embeddingResponse{Object: "list", Model: "test-model"}
		resp.Data = append(resp.Data,
			embeddingItem{Object: "embedding", Embedding: vec2, Index: 1},
			embeddingItem{Object: "embedding", Embedding: vec1, Index: 0},
		)
		resp.Usage.PromptTokens = 20
		resp.Usage.TotalTokens = 20

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	vectors, err := emb.EmbedTexts(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}

	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 0.1 {
		t.Errorf("expected first vec[0]=0.1, got %f", vectors[0][0])
	}
	if vectors[1][0] != 0.3 {
		t.Errorf("expected second vec[0]=0.3, got %f", vectors[1][0])
	}
}

func TestEmbedTexts_Empty(t *testing.T) {
	emb := NewEmbedder(config.EmbeddingConfig{
		APIKey:  "test-key",
		BaseURL: "http://unused",
		Model:   "test-model",
	}, zap.NewNop())

	vectors, err := emb.EmbedTexts(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectors != nil {
		t.Errorf("expected nil vectors for empty input, got %v", vectors)
	}
}

func TestEmbedTexts_CountMismatch(t *testing.T) {
	emb := newTestEmbedder(t, 0, func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{Object: "list", Model: "test-model"}
		resp.Data = append(resp.Data,
			embeddingItem{Object: "embedding", Embedding: []float32{0.1}, Index: 0})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	_, err := emb.EmbedTexts(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrProviderError) {
		t.Fatalf("expected ErrProviderError for count mismatch, got %v", err)
	}
}

func TestEmbedTexts_DimensionMismatch(t *testing.T) {
	emb := newTestEmbedder(t, 4, func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{Object: "list", Model: "test-model"}
		resp.Data = append(resp.Data,
			embeddingItem{Object: "embedding", Embedding: []float32{0.1, 0.2}, Index: 0})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	_, err := emb.EmbedTexts(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrEmbeddingDimMismatch) {
		t.Fatalf("expected ErrEmbeddingDimMismatch, got %v", err)
	}
}

func TestEmbedText(t *testing.T) {
	emb := newTestEmbedder(t, 2, func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{Object: "list", Model: "test-model"}
		resp.Data = append(resp.Data,
			embeddingItem{Object: "embedding", Embedding: []float32{0.5, 0.6}, Index: 0})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	vec, err := emb.EmbedText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("unexpected vector: %v", vec)
	}
}

func TestEmbedTexts_APIError(t *testing.T) {
	emb := newTestEmbedder(t, 0, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	})

	_, err := emb.EmbedTexts(context.Background(), []string{"hello"})
	if !errors.Is(err, domain.ErrProviderError) {
		t.Fatalf("expected ErrProviderError for 429 response, got %v", err)
	}
}

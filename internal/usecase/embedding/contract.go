package embedding

import "context"

// Embedder vectorizes one group of texts in a single provider call.
// Results are positional: vector i belongs to texts[i].
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

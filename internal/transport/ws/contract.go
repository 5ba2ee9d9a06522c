package ws

import (
	"context"

	"github.com/wondercloudgenai/talentflow/internal/domain"
)

// Store is the slice of the document store the interactive channel
// reads from.
type Store interface {
	JobDetail(ctx context.Context, jobID string) (domain.JobDetail, error)
	FetchCandidatesByVector(ctx context.Context, jobID string, vector []float32, limit int) ([]domain.Document, error)
}

// Embedder turns one query text into a vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Package embedding partitions large text sets into provider-sized
// groups and reassembles the vectors into records.
package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/domain"
)

// DefaultGroupSize is the number of texts sent per provider call.
const DefaultGroupSize = 150

// GroupError reports a failed group together with how far the batch got.
// Groups before GroupsDone succeeded; their vectors are discarded by the
// caller because a partial embedding set is not persisted.
type GroupError struct {
	GroupsDone int
	Groups     int
	Err        error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("embedding group %d of %d: %v", e.GroupsDone+1, e.Groups, e.Err)
}

func (e *GroupError) Unwrap() error { return e.Err }

// Batcher embeds text sets group by group.
type Batcher struct {
	embedder  Embedder
	groupSize int
	logger    *zap.Logger
}

// NewBatcher creates a Batcher. A non-positive group size falls back to
// the default.
func NewBatcher(embedder Embedder, groupSize int, logger *zap.Logger) *Batcher {
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	return &Batcher{embedder: embedder, groupSize: groupSize, logger: logger}
}

// EmbedAll embeds texts sequentially in groups of the configured size.
// The first failing group aborts the batch; earlier results are dropped.
func (b *Batcher) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	groups := (len(texts) + b.groupSize - 1) / b.groupSize
	vectors := make([][]float32, 0, len(texts))

	for i := 0; i < groups; i++ {
		lo := i * b.groupSize
		hi := min(lo+b.groupSize, len(texts))

		groupVectors, err := b.embedder.EmbedTexts(ctx, texts[lo:hi])
		if err != nil {
			return nil, &GroupError{GroupsDone: i, Groups: groups, Err: err}
		}

		vectors = append(vectors, groupVectors...)
	}

	b.logger.Debug("embedded batch",
		zap.Int("texts", len(texts)),
		zap.Int("groups", groups))

	return vectors, nil
}

// EmbedRecords embeds texts and pairs each vector with its source text
// as a persistable record owned by one document.
func (b *Batcher) EmbedRecords(ctx context.Context, ownerID string, texts []string) ([]domain.EmbeddingRecord, error) {
	vectors, err := b.EmbedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	records := make([]domain.EmbeddingRecord, len(vectors))
	for i, vec := range vectors {
		records[i] = domain.EmbeddingRecord{
			OwnerID:    ownerID,
			SourceText: texts[i],
			Vector:     vec,
		}
	}
	return records, nil
}

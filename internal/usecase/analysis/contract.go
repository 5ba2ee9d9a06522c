package analysis

import (
	"context"

	"github.com/wondercloudgenai/talentflow/internal/domain"
)

// DocumentStore is the callback-backed view of persistent state.
type DocumentStore interface {
	FetchUnanalyzed(ctx context.Context, scope domain.Scope) ([]domain.Document, string, error)
	UpdateStatuses(ctx context.Context, updates []domain.StatusUpdate) error
	CreateAnalysisRecords(ctx context.Context, taskID string, records []domain.AnalysisRecord) error
	CreateEmbeddingRecords(ctx context.Context, records []domain.EmbeddingRecord) error
	CreateAbstractRecords(ctx context.Context, records []domain.AbstractRecord) error
	JobDetail(ctx context.Context, jobID string) (domain.JobDetail, error)
	CreateJobSummary(ctx context.Context, summary domain.JobSummary) error
	UpdateSearchTaskStatus(ctx context.Context, taskID, status, reason string) error
	SearchTaskDetail(ctx context.Context, taskID string) (domain.SearchTask, error)
	TriggerVectorRetrieval(ctx context.Context, taskID string, task domain.SearchTask, vector []float32) error
}

// Generator runs generative model requests.
type Generator interface {
	GenerateAnalysis(ctx context.Context, jobInfo string, docs []domain.Document) (string, error)
	GenerateSummary(ctx context.Context, jobText string) (string, error)
	GenerateAbstract(ctx context.Context, docs []domain.Document) (string, error)
}

// ResultParser turns raw model output into validated records.
type ResultParser interface {
	Analyses(raw string) ([]domain.AnalysisRecord, error)
	Abstracts(raw string) ([]domain.Abstract, error)
}

// Embedder embeds a single text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Batcher embeds text sets in provider-sized groups.
type Batcher interface {
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
	EmbedRecords(ctx context.Context, ownerID string, texts []string) ([]domain.EmbeddingRecord, error)
}

// Splitter slices extracted text into token-bounded chunks.
type Splitter interface {
	Split(text string) []domain.Chunk
}

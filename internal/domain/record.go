package domain

// VectorDim is the embedding dimensionality the pipeline persists.
// The provider is asked for exactly this many dimensions and anything
// else is rejected before it reaches storage.
const VectorDim = 768

// Chunk is a token-bounded slice of extracted document text. Chunks are
// ephemeral: produced and embedded within one task invocation, never
// persisted on their own.
type Chunk struct {
	Text       string
	SequenceID string
	TokenCount int
}

// EmbeddingRecord ties one source text to its vector. Immutable once
// written through the callback interface.
type EmbeddingRecord struct {
	OwnerID    string    `json:"cv_id"`
	SourceText string    `json:"sentence"`
	Vector     []float32 `json:"embedding"`
}

// AnalysisRecord is the structured outcome of analyzing one document
// against a job. Overwritten on re-analysis.
type AnalysisRecord struct {
	DocumentID    string   `json:"cv_id"`
	Suitability   int      `json:"suitability"`
	Reason        string   `json:"reason"`
	Advantages    []string `json:"advantages"`
	Disadvantages []string `json:"disadvantages"`
}

// FilterMatch is one thresholded hit from an interactive filter round.
type FilterMatch struct {
	DocumentID  string `json:"cv_id"`
	Suitability int    `json:"suitability"`
	Reason      string `json:"reason"`
}

// KeywordEmbedding pairs one extracted keyword with its vector.
type KeywordEmbedding struct {
	Keyword string    `json:"keyword"`
	Vector  []float32 `json:"embedding"`
}

// AbstractRecord holds the key facts and keyword vectors extracted from
// one résumé.
type AbstractRecord struct {
	DocumentID string             `json:"cv_id"`
	Info       map[string]any     `json:"info"`
	Keywords   []KeywordEmbedding `json:"keywords"`
}

// JobSummary is the condensed description of a job produced by the
// summary analysis task. KeywordSummary is the one-line form used for
// embedding retrieval.
type JobSummary struct {
	JobID          string `json:"jd_id"`
	Summary        string `json:"job_summary"`
	KeywordSummary string `json:"keyword_summary"`
}

// JobDetail is the raw job description as stored upstream, the input to
// summarization. Summary is non-empty only when a prior summarization
// run already produced one.
type JobDetail struct {
	Name             string `json:"name"`
	WorkRequest      string `json:"work_request"`
	WorkInfo         string `json:"work_info"`
	Responsibilities string `json:"responsibilities"`
	Summary          string `json:"summary,omitempty"`
}

// Info returns the text the interactive filter presents as job context,
// preferring a produced summary over the bare job name.
func (d JobDetail) Info() string {
	if d.Summary != "" {
		return d.Summary
	}
	return d.Name
}

// SearchTask describes one vector search request owned by the store.
type SearchTask struct {
	Keyword        string `json:"keyword"`
	JobID          string `json:"jd_id"`
	Limit          int    `json:"search_number"`
	Zone           string `json:"zone"`
	KeywordSummary string `json:"keyword_summary"`
}

// Abstract is the parsed key-fact extraction for one document, before
// its keywords are embedded.
type Abstract struct {
	Key      string         `json:"key"`
	Info     map[string]any `json:"info"`
	Keywords []string       `json:"keywords"`
}

package queue

import "encoding/json"

// Task names dispatched by the consumer.
const (
	TaskAnalyzeCV    = "cv_analyze"
	TaskAnalyzeJD    = "jd_analyze"
	TaskEmbedCV      = "cv_embedding"
	TaskAbstractCV   = "cv_abstract"
	TaskVectorSearch = "cv_vector_search"
)

// Task is one queued unit of work. Producers push JSON-encoded tasks
// onto the Redis list the consumer pops from.
type Task struct {
	Name    string          `json:"task"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

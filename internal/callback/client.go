// Package callback is the HTTP client for the document store's task
// callback endpoint. Every read and write the pipeline performs against
// persistent state goes through this single endpoint, multiplexed by an
// event name in the query string.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/config"
	"github.com/wondercloudgenai/talentflow/internal/domain"
)

// Callback event names. These are wire constants shared with the store.
const (
	eventJobDetail            = "jd_detail_get"
	eventJobSummaryCreate     = "jd_analyze_create"
	eventUnanalyzedGet        = "cv_non_analytic_get"
	eventAnalysisCreate       = "cv_analytic_attach_create"
	eventAbstractCreate       = "cv_abstract_attach_create"
	eventStatusUpdate         = "cv_analytic_status_update"
	eventEmbeddingsCreate     = "cv_sentence_embeddings_create"
	eventSearchStatusUpdate   = "search_task_status_update"
	eventSearchDetail         = "search_task_detail_get"
	eventSearchVectorRetrieve = "search_task_vector_cvs_retrieval"
	eventCandidatesGet        = "cv_embedding_candidates_get"
)

const callbackPath = "/index/bg/celery/callback"

// Search task terminal states reported back to the store.
const (
	SearchStatusStarting  = "Starting"
	SearchStatusCompleted = "Completed"
	SearchStatusFailed    = "Failed"
)

// envelope is the store's uniform response wrapper. Code 200 means the
// event handler succeeded; anything else is a rejection regardless of
// the HTTP status.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Client posts callback events to the document store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// New builds a callback client from configuration.
func New(cfg config.CallbackConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// post sends one event and decodes the envelope data into out when out
// is non-nil.
func (c *Client) post(ctx context.Context, event string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("callback %s: encode payload: %w", event, err)
	}

	u := c.baseURL + callbackPath + "?event=" + url.QueryEscape(event)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("callback %s: build request: %w", event, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	c.logger.Debug("posting callback event", zap.String("event", event))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback %s: %w", event, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("callback %s: status %s: %w", event, resp.Status, domain.ErrCallbackRejected)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("callback %s: decode response: %w", event, err)
	}
	if env.Code != http.StatusOK {
		return fmt.Errorf("callback %s: code %d (%s): %w", event, env.Code, env.Msg, domain.ErrCallbackRejected)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("callback %s: decode data: %w", event, err)
		}
	}
	return nil
}

// FetchUnanalyzed returns the unanalyzed documents in scope together
// with the job context the analysis prompt needs.
func (c *Client) FetchUnanalyzed(ctx context.Context, scope domain.Scope) ([]domain.Document, string, error) {
	var data struct {
		CVs     []domain.Document `json:"cvs"`
		JobInfo string            `json:"job_info"`
	}
	if err := c.post(ctx, eventUnanalyzedGet, scope, &data); err != nil {
		return nil, "", err
	}
	return data.CVs, data.JobInfo, nil
}

// UpdateStatuses applies a batch of document status changes.
func (c *Client) UpdateStatuses(ctx context.Context, updates []domain.StatusUpdate) error {
	payload := map[string]any{"cvs": updates}
	return c.post(ctx, eventStatusUpdate, payload, nil)
}

// CreateAnalysisRecords persists analysis outcomes for a search task.
func (c *Client) CreateAnalysisRecords(ctx context.Context, taskID string, records []domain.AnalysisRecord) error {
	payload := map[string]any{"task_id": taskID, "analyzes": records}
	return c.post(ctx, eventAnalysisCreate, payload, nil)
}

// CreateEmbeddingRecords persists sentence embeddings.
func (c *Client) CreateEmbeddingRecords(ctx context.Context, records []domain.EmbeddingRecord) error {
	payload := map[string]any{"embeddings": records}
	return c.post(ctx, eventEmbeddingsCreate, payload, nil)
}

// CreateAbstractRecords persists extracted résumé abstracts.
func (c *Client) CreateAbstractRecords(ctx context.Context, records []domain.AbstractRecord) error {
	payload := map[string]any{"results": records}
	return c.post(ctx, eventAbstractCreate, payload, nil)
}

// JobDetail fetches the raw job description for a job id.
func (c *Client) JobDetail(ctx context.Context, jobID string) (domain.JobDetail, error) {
	var detail domain.JobDetail
	payload := map[string]any{"jd_id": jobID}
	if err := c.post(ctx, eventJobDetail, payload, &detail); err != nil {
		return domain.JobDetail{}, err
	}
	return detail, nil
}

// CreateJobSummary persists a generated job summary.
func (c *Client) CreateJobSummary(ctx context.Context, summary domain.JobSummary) error {
	return c.post(ctx, eventJobSummaryCreate, summary, nil)
}

// UpdateSearchTaskStatus reports search task progress to the store.
func (c *Client) UpdateSearchTaskStatus(ctx context.Context, taskID, status, reason string) error {
	payload := map[string]any{"search_task_id": taskID, "status": status, "reason": reason}
	return c.post(ctx, eventSearchStatusUpdate, payload, nil)
}

// SearchTaskDetail fetches the parameters of one search task.
func (c *Client) SearchTaskDetail(ctx context.Context, taskID string) (domain.SearchTask, error) {
	var task domain.SearchTask
	payload := map[string]any{"search_task_id": taskID}
	if err := c.post(ctx, eventSearchDetail, payload, &task); err != nil {
		return domain.SearchTask{}, err
	}
	return task, nil
}

// TriggerVectorRetrieval asks the store to materialize the candidate
// set nearest to the query vector for a search task.
func (c *Client) TriggerVectorRetrieval(ctx context.Context, taskID string, task domain.SearchTask, vector []float32) error {
	payload := map[string]any{
		"search_task_id": taskID,
		"jd_id":          task.JobID,
		"limit":          task.Limit,
		"zone":           task.Zone,
		"embedding":      vector,
	}
	return c.post(ctx, eventSearchVectorRetrieve, payload, nil)
}

// FetchCandidatesByVector returns up to limit documents for a job
// ranked by vector similarity to the query embedding.
func (c *Client) FetchCandidatesByVector(ctx context.Context, jobID string, vector []float32, limit int) ([]domain.Document, error) {
	var data struct {
		CVs []domain.Document `json:"cvs"`
	}
	payload := map[string]any{"jd_id": jobID, "embedding": vector, "limit": limit}
	if err := c.post(ctx, eventCandidatesGet, payload, &data); err != nil {
		return nil, err
	}
	return data.CVs, nil
}
